// Package proc is the process lifecycle manager: creation, fork, exec,
// wait, and exit, coordinated with the synchronization primitives so
// parents and children never observe each other's resources half-built.
//
// A process is one unit of execution owning an address space and a
// file-descriptor table. Fork deep-copies both; exec replaces the
// execution image in place; wait collects a child's exit status exactly
// once; exit tears everything down and publishes the status before the
// thread disappears.
package proc

import (
	"fmt"
	"io"
	"os"

	"github.com/puzpuzpuz/xsync/v2"

	"kernos/fsys"
	"kernos/list"
	"kernos/sched"
	"kernos/synch"
	"kernos/vmem"
)

const (
	// NOFile is the size of the per-process descriptor table.
	// Descriptors 0 and 1 are the console; files occupy [FdMin,
	// NOFile).
	NOFile = 64
	FdMin  = 2
)

// TidError is the failure sentinel for operations returning a thread
// id.
const TidError = -1

// Console receives every byte written to descriptor 1 and the process
// exit lines. Tests swap it for a buffer.
var Console io.Writer = os.Stdout

// Stdin backs reads from descriptor 0.
var Stdin io.Reader = os.Stdin

// childStatus is the record a parent keeps for each child: the exit
// status and the semaphore the parent sleeps on in Wait. The child owns
// the publishing side; the parent owns the record.
type childStatus struct {
	tid    int
	status int
	exited bool
	waited bool
	done   synch.Semaphore
	elem   list.Element[*childStatus]
}

// Process is one process: a thread plus the resources it owns.
type Process struct {
	Tid  int
	Name string

	// Frame is the simulated user register state. Exec rebuilds it;
	// fork snapshots the parent's and zeroes the child's return
	// register.
	Frame sched.Frame

	thread   *sched.Thread
	as       *vmem.AddrSpace
	files    [NOFile]*fsys.File
	exe      *fsys.File
	children list.List[*childStatus]

	// status points into the parent's children list; nil for a
	// process nobody waits on.
	status *childStatus
}

var ptable = xsync.NewIntegerMapOf[int, *Process]()

func attach(t *sched.Thread) *Process {
	p := &Process{Tid: t.ID, Name: t.Name, thread: t}
	t.State = p
	ptable.Store(p.Tid, p)
	return p
}

// Current returns the calling thread's process, adopting threads that
// do not have one yet.
func Current() *Process {
	t := sched.Current()
	if p, ok := t.State.(*Process); ok {
		return p
	}
	return attach(t)
}

// ByTid looks a live process up by thread id.
func ByTid(tid int) (*Process, bool) {
	return ptable.Load(tid)
}

// AddrSpace returns the process's address space, nil before the first
// exec.
func (p *Process) AddrSpace() *vmem.AddrSpace {
	return p.as
}

// File returns the open file at descriptor fd, or nil.
func (p *Process) File(fd int) *fsys.File {
	if fd < FdMin || fd >= NOFile {
		return nil
	}
	return p.files[fd]
}

// InstallFile places f in the lowest free descriptor slot and returns
// it, or -1 when the table is full.
func (p *Process) InstallFile(f *fsys.File) int {
	for fd := FdMin; fd < NOFile; fd++ {
		if p.files[fd] == nil {
			p.files[fd] = f
			return fd
		}
	}
	return -1
}

// PlaceFile puts f at descriptor fd, which must be free and in range.
func (p *Process) PlaceFile(fd int, f *fsys.File) {
	if fd < FdMin || fd >= NOFile || p.files[fd] != nil {
		panic("proc: descriptor slot not free")
	}
	p.files[fd] = f
}

// RemoveFile clears descriptor fd and returns the file that occupied
// it, or nil.
func (p *Process) RemoveFile(fd int) *fsys.File {
	f := p.File(fd)
	if f != nil {
		p.files[fd] = nil
	}
	return f
}

// adoptChild links a child-status record into p's children list.
func (p *Process) adoptChild(cs *childStatus) {
	cs.elem.Value = cs
	old := sched.Disable()
	p.children.PushBack(&cs.elem)
	sched.SetLevel(old)
}

// Create starts a new process executing cmdline's program and returns
// its thread id, or TidError for an empty command line. The caller
// becomes the new process's parent and may Wait for it. Whether the
// program loaded is not known here; a load failure surfaces as exit
// status -1.
func Create(cmdline string) int {
	name, _ := splitCommandLine(cmdline)
	if name == "" {
		return TidError
	}
	parent := Current()

	cs := &childStatus{}
	line := cmdline // private copy for the child
	t := sched.Spawn(name, sched.PriDefault, func() {
		p := attach(sched.Current())
		p.status = cs
		if p.Exec(line) < 0 {
			p.Exit(-1)
		}
	})
	cs.tid = t.ID
	parent.adoptChild(cs)
	return t.ID
}

// Wait sleeps until the child with thread id tid exits and returns its
// exit status. It returns -1 immediately if tid is not an unwaited
// child of the caller. Each child can be waited for once.
func (p *Process) Wait(tid int) int {
	old := sched.Disable()
	var cs *childStatus
	for e := p.children.Begin(); e != p.children.End(); e = e.Next() {
		if e.Value.tid == tid {
			cs = e.Value
			break
		}
	}
	if cs == nil || cs.waited {
		sched.SetLevel(old)
		return -1
	}
	cs.waited = true
	sched.SetLevel(old)

	cs.done.Down()

	old = sched.Disable()
	p.children.Remove(&cs.elem)
	sched.SetLevel(old)
	return cs.status
}

// Exit terminates the calling process with status: prints the exit
// line, closes every descriptor, releases the executable and address
// space, publishes the status to the parent, and ends the thread. It
// never returns.
func (p *Process) Exit(status int) {
	fmt.Fprintf(Console, "%s: exit(%d)\n", p.Name, status)
	p.cleanup()

	ptable.Delete(p.Tid)

	if cs := p.status; cs != nil {
		old := sched.Disable()
		cs.status = status
		cs.exited = true
		sched.SetLevel(old)
		cs.done.Up()
	}
	sched.Exit()
}

// cleanup releases the process's current execution image: open
// descriptors, the write-denied executable, and the address space. Exec
// calls it before loading the next image; Exit calls it last.
func (p *Process) cleanup() {
	for fd := FdMin; fd < NOFile; fd++ {
		if f := p.files[fd]; f != nil {
			f.Close()
			p.files[fd] = nil
		}
	}
	if p.exe != nil {
		p.exe.Close()
		p.exe = nil
	}
	if p.as != nil {
		p.as.Destroy()
		p.as = nil
	}
}
