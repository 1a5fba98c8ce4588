// Package syscall dispatches simulated system calls. Programs invoke
// Handle with their register frame: the call number in AX, arguments
// in DI/SI/DX, and the result back in AX.
//
// Every user pointer is validated against the caller's address space
// before use; a bad pointer or descriptor terminates the calling
// process with status -1 instead of returning an error. File-touching
// calls serialize through one global filesystem lock.
package syscall

import (
	"os"

	"kernos/fsys"
	"kernos/mem"
	"kernos/proc"
	"kernos/sched"
	"kernos/synch"
	"kernos/vmem"
)

// PowerOff is what halt does. Tests swap it to observe the call.
var PowerOff = func() { os.Exit(0) }

// fsLock serializes every filesystem operation across all processes.
var fsLock = synch.NewLock()

const maxStringArg = 1024

// Handle executes the system call described by frame and stores the
// result in frame.AX. Calls that terminate the process never return.
func Handle(frame *sched.Frame) {
	p := proc.Current()

	switch frame.AX {
	case SysHalt:
		PowerOff()

	case SysExit:
		p.Exit(arg(frame.DI))

	case SysFork:
		name := userString(p, frame.DI)
		ret(frame, p.Fork(name, frame))

	case SysExec:
		line := userString(p, frame.DI)
		p.Exec(line)
		// Only a failed exec comes back, and it is fatal.
		p.Exit(-1)

	case SysWait:
		ret(frame, p.Wait(arg(frame.DI)))

	case SysCreate:
		name := userString(p, frame.DI)
		fsLock.Acquire()
		ok := fsys.Create(name, arg(frame.SI))
		fsLock.Release()
		retBool(frame, ok)

	case SysRemove:
		name := userString(p, frame.DI)
		fsLock.Acquire()
		ok := fsys.Remove(name)
		fsLock.Release()
		retBool(frame, ok)

	case SysOpen:
		sysOpen(p, frame)

	case SysFilesize:
		f := userFile(p, arg(frame.DI))
		fsLock.Acquire()
		ret(frame, f.Length())
		fsLock.Release()

	case SysRead:
		sysRead(p, frame)

	case SysWrite:
		sysWrite(p, frame)

	case SysSeek:
		f := userFile(p, arg(frame.DI))
		fsLock.Acquire()
		f.Seek(arg(frame.SI))
		fsLock.Release()

	case SysTell:
		f := userFile(p, arg(frame.DI))
		fsLock.Acquire()
		ret(frame, f.Tell())
		fsLock.Release()

	case SysClose:
		fd := arg(frame.DI)
		f := userFile(p, fd)
		fsLock.Acquire()
		p.RemoveFile(fd)
		f.Close()
		fsLock.Release()

	case SysDup2:
		sysDup2(p, frame)

	case SysMmap, SysMunmap, SysChdir, SysMkdir, SysReaddir,
		SysIsdir, SysInumber, SysSymlink, SysMount, SysUmount:
		// Accepted and ignored; the result register is left alone.

	default:
		// Unrecognized numbers are ignored the same way.
	}
}

func sysOpen(p *proc.Process, frame *sched.Frame) {
	name := userString(p, frame.DI)

	fsLock.Acquire()
	defer fsLock.Release()

	f := fsys.Open(name)
	if f == nil {
		ret(frame, -1)
		return
	}
	// A running binary must not be writable through its own name.
	if name == p.Name {
		f.DenyWrite()
	}
	fd := p.InstallFile(f)
	if fd < 0 {
		f.Close()
	}
	ret(frame, fd)
}

// Read and write move data through a fixed kernel buffer one chunk at
// a time. The size argument comes straight from a user register and is
// never trusted to size an allocation: an oversized request runs into
// an unmapped user page and kills the caller, not the kernel.
const ioChunk = mem.PageSize

func sysRead(p *proc.Process, frame *sched.Frame) {
	fd, va, size := arg(frame.DI), frame.SI, arg(frame.DX)
	if size < 0 || fd == 1 {
		p.Exit(-1)
	}

	read := func(b []byte) int {
		n, _ := proc.Stdin.Read(b)
		return n
	}
	if fd != 0 {
		f := userFile(p, fd)
		read = func(b []byte) int {
			fsLock.Acquire()
			n := f.Read(b)
			fsLock.Release()
			return n
		}
	}

	buf := make([]byte, ioChunk)
	total := 0
	for total < size {
		c := size - total
		if c > ioChunk {
			c = ioChunk
		}
		n := read(buf[:c])
		if n > 0 {
			if !userSpace(p).CopyOut(va+uintptr(total), buf[:n]) {
				p.Exit(-1)
			}
			total += n
		}
		if n < c {
			break
		}
	}
	ret(frame, total)
}

func sysWrite(p *proc.Process, frame *sched.Frame) {
	fd, va, size := arg(frame.DI), frame.SI, arg(frame.DX)
	if size < 0 || fd == 0 {
		p.Exit(-1)
	}

	var f *fsys.File
	if fd != 1 {
		f = userFile(p, fd)
	}

	buf := make([]byte, ioChunk)
	total := 0
	for total < size {
		c := size - total
		if c > ioChunk {
			c = ioChunk
		}
		if !userSpace(p).CopyIn(buf[:c], va+uintptr(total)) {
			p.Exit(-1)
		}
		var n int
		if f == nil {
			n, _ = proc.Console.Write(buf[:c])
		} else {
			fsLock.Acquire()
			n = f.Write(buf[:c])
			fsLock.Release()
		}
		total += n
		if n < c {
			break
		}
	}
	ret(frame, total)
}

func sysDup2(p *proc.Process, frame *sched.Frame) {
	oldfd, newfd := arg(frame.DI), arg(frame.SI)
	f := userFile(p, oldfd)
	if newfd < proc.FdMin || newfd >= proc.NOFile {
		p.Exit(-1)
	}
	if newfd == oldfd {
		ret(frame, newfd)
		return
	}

	fsLock.Acquire()
	if old := p.RemoveFile(newfd); old != nil {
		old.Close()
	}
	dup := f.Duplicate()
	fsLock.Release()

	p.PlaceFile(newfd, dup)
	ret(frame, newfd)
}

// userSpace returns the caller's address space, killing a process that
// has no image.
func userSpace(p *proc.Process) *vmem.AddrSpace {
	as := p.AddrSpace()
	if as == nil {
		p.Exit(-1)
	}
	return as
}

// userString reads a null-terminated string argument, killing the
// caller on a bad pointer.
func userString(p *proc.Process, va uintptr) string {
	s, ok := userSpace(p).ReadString(va, maxStringArg)
	if !ok {
		p.Exit(-1)
	}
	return s
}

// userFile resolves a descriptor argument, killing the caller when it
// is out of range or unallocated.
func userFile(p *proc.Process, fd int) *fsys.File {
	f := p.File(fd)
	if f == nil {
		p.Exit(-1)
	}
	return f
}

func arg(v uintptr) int {
	return int(int64(v))
}

func ret(frame *sched.Frame, v int) {
	frame.AX = uintptr(v)
}

func retBool(frame *sched.Frame, ok bool) {
	if ok {
		frame.AX = 1
	} else {
		frame.AX = 0
	}
}
