package proc

import (
	"bytes"
	"encoding/binary"

	"kernos/fsys"
	"kernos/mem"
	"kernos/sched"
	"kernos/vmem"
)

const pageSize = mem.PageSize

// load reads an executable image from file into a fresh address space
// and fills in the entry point and initial stack pointer. On failure
// the partial address space has been destroyed and p.as is nil.
func (p *Process) load(file *fsys.File, frame *sched.Frame) bool {
	as := vmem.New()
	if as == nil {
		return false
	}
	p.as = as
	as.Activate()

	if !p.loadImage(file, frame) {
		as.Destroy()
		p.as = nil
		return false
	}
	return true
}

func (p *Process) loadImage(file *fsys.File, frame *sched.Frame) bool {
	raw := make([]byte, headerSize)
	if file.ReadAt(raw, 0) != headerSize {
		return false
	}
	var h header
	binary.Read(bytes.NewReader(raw), binary.LittleEndian, &h)
	if !h.valid() {
		return false
	}

	off := int(h.Phoff)
	for i := 0; i < int(h.Phnum); i++ {
		raw := make([]byte, phdrSize)
		if file.ReadAt(raw, off) != phdrSize {
			return false
		}
		off += phdrSize

		var ph phdr
		binary.Read(bytes.NewReader(raw), binary.LittleEndian, &ph)
		if ph.Type != ptLoad {
			continue
		}
		if !validSegment(&ph, file) {
			return false
		}
		if !p.loadSegment(file, &ph) {
			return false
		}
	}

	if !p.setupStack(frame) {
		return false
	}
	frame.IP = uintptr(h.Entry)
	return true
}

// validSegment checks a loadable segment against the executable
// contract before anything is mapped.
func validSegment(ph *phdr, file *fsys.File) bool {
	// File offset and virtual address must be congruent modulo the
	// page size, and the offset must point into the file.
	if ph.Off%pageSize != ph.Vaddr%pageSize {
		return false
	}
	if ph.Off > uint64(file.Length()) {
		return false
	}

	if ph.Memsz < ph.Filesz || ph.Memsz == 0 {
		return false
	}

	start := uintptr(ph.Vaddr)
	end := uintptr(ph.Vaddr + ph.Memsz)
	if !vmem.IsUserAddr(start) || !vmem.IsUserAddr(end-1) {
		return false
	}
	if end < start {
		// Wrapped around the address space.
		return false
	}
	// Page zero is never mapped.
	if start < pageSize {
		return false
	}
	return true
}

// loadSegment maps the segment's page range, filling each frame from
// the file and zeroing the remainder.
func (p *Process) loadSegment(file *fsys.File, ph *phdr) bool {
	pgofs := uintptr(ph.Vaddr) & (pageSize - 1)
	va := vmem.PageBase(uintptr(ph.Vaddr))
	fileOff := int(ph.Off - uint64(pgofs))
	readLeft := int(pgofs) + int(ph.Filesz)
	zeroLeft := int(pgofs) + int(ph.Memsz) - readLeft
	writable := ph.Flags&pfWrite != 0

	for readLeft > 0 || zeroLeft > 0 {
		readNow := readLeft
		if readNow > pageSize {
			readNow = pageSize
		}

		frame := mem.Alloc(mem.Zero)
		if frame == nil {
			return false
		}
		if readNow > 0 && file.ReadAt(frame[:readNow], fileOff) != readNow {
			mem.Free(frame)
			return false
		}
		if !p.as.Map(va, frame, writable) {
			mem.Free(frame)
			return false
		}

		zeroNow := pageSize - readNow
		if zeroNow > zeroLeft {
			zeroNow = zeroLeft
		}
		readLeft -= readNow
		zeroLeft -= zeroNow
		fileOff += pageSize
		va += pageSize
	}
	return true
}

// setupStack maps one zeroed writable page just below the initial stack
// pointer.
func (p *Process) setupStack(frame *sched.Frame) bool {
	pg := mem.Alloc(mem.Zero)
	if pg == nil {
		return false
	}
	if !p.as.Map(vmem.UserStack-pageSize, pg, true) {
		mem.Free(pg)
		return false
	}
	frame.SP = vmem.UserStack
	return true
}
