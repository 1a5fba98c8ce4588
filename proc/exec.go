package proc

import (
	"encoding/binary"
	"strings"

	"kernos/fsys"
	"kernos/sched"
)

func splitCommandLine(cmdline string) (name string, argv []string) {
	argv = strings.Fields(cmdline)
	if len(argv) == 0 {
		return "", nil
	}
	return argv[0], argv
}

// Exec replaces the calling process's execution image with the program
// named by cmdline's first word, passing the remaining words as
// arguments. The old image — descriptors, executable, address space —
// is torn down first, so a failed exec leaves the process with no image
// and the caller must treat -1 as fatal.
//
// On success Exec transfers control to the new image and never returns.
func (p *Process) Exec(cmdline string) int {
	name, argv := splitCommandLine(cmdline)
	if name == "" {
		return -1
	}

	p.cleanup()
	p.Name = name
	p.thread.Name = name

	file := fsys.Open(name)
	if file == nil {
		return -1
	}

	var frame sched.Frame
	if !p.load(file, &frame) {
		file.Close()
		return -1
	}

	// The running image must not change under us.
	file.DenyWrite()
	p.exe = file

	if !p.pushArgs(argv, &frame) {
		return -1
	}

	p.Frame = frame
	p.resume()
	panic("proc: resume returned")
}

// pushArgs builds the initial user stack: the argument strings packed
// in order, padding to an 8-byte boundary, a terminating null pointer,
// the argv pointers in reverse push order so they read forward in
// memory, and a fake return address. The frame's argument registers
// receive argc and argv.
func (p *Process) pushArgs(argv []string, frame *sched.Frame) bool {
	sp := frame.SP
	addrs := make([]uintptr, len(argv))

	for i := len(argv) - 1; i >= 0; i-- {
		arg := append([]byte(argv[i]), 0)
		sp -= uintptr(len(arg))
		if !p.as.CopyOut(sp, arg) {
			return false
		}
		addrs[i] = sp
	}

	pad := sp % 8
	sp -= pad
	if !p.as.CopyOut(sp, make([]byte, pad)) {
		return false
	}

	push := func(word uintptr) bool {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(word))
		sp -= 8
		return p.as.CopyOut(sp, buf[:])
	}

	if !push(0) { // argv[argc]
		return false
	}
	for i := len(argv) - 1; i >= 0; i-- {
		if !push(addrs[i]) {
			return false
		}
	}
	frame.DI = uintptr(len(argv))
	frame.SI = sp

	if !push(0) { // fake return address
		return false
	}
	frame.SP = sp
	return true
}
