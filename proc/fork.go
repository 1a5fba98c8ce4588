package proc

import (
	"kernos/sched"
	"kernos/synch"
)

// forkArgs is the handshake block between a forking parent and its
// child. The child owns it once spawned: it reads the snapshot, records
// success or failure, and signals done. The parent only sleeps on done
// and reads ok afterwards, so it never wakes before the child has fully
// succeeded or fully failed.
type forkArgs struct {
	parent *Process
	frame  sched.Frame
	ok     bool
	done   synch.Semaphore
}

// Fork clones the calling process: a new thread with a deep copy of the
// address space, duplicates of every open descriptor, and a register
// snapshot whose return register reads zero. It returns the child's
// thread id, or TidError if any part of the duplication failed.
//
// The parent sleeps until the child's copy is complete, so the two
// never run concurrently against a half-copied address space.
func (p *Process) Fork(name string, frame *sched.Frame) int {
	fa := &forkArgs{parent: p, frame: *frame}
	cs := &childStatus{}

	t := sched.Spawn(name, p.thread.Priority, func() {
		forkChild(fa, cs)
	})
	cs.tid = t.ID
	p.adoptChild(cs)

	fa.done.Down()
	if !fa.ok {
		return TidError
	}
	return t.ID
}

// forkChild is the child side of the handshake: duplicate everything,
// report, and either resume the program image or die without ever
// having run it.
func forkChild(fa *forkArgs, cs *childStatus) {
	child := attach(sched.Current())
	child.Name = fa.parent.Name
	child.status = cs

	child.Frame = fa.frame
	child.Frame.AX = 0 // the forked state observes a zero return

	fa.ok = child.duplicate(fa.parent)
	fa.done.Up()

	if !fa.ok {
		child.Exit(-1)
	}
	child.resume()
}

// duplicate copies the parent's address space page by page and every
// descriptor slot from FdMin up, in that order. On failure everything
// copied so far is released before reporting.
func (child *Process) duplicate(parent *Process) bool {
	if parent.as != nil {
		child.as = parent.as.Copy()
		if child.as == nil {
			return false
		}
	}

	if parent.exe != nil {
		child.exe = parent.exe.Duplicate()
	}
	for fd := FdMin; fd < NOFile; fd++ {
		if f := parent.files[fd]; f != nil {
			child.files[fd] = f.Duplicate()
		}
	}
	return true
}

// resume transfers control to the process's program image with the
// current register frame, the moral equivalent of returning to user
// mode. It never returns.
func (p *Process) resume() {
	body := lookupProgram(p.Name)
	p.Exit(body(&p.Frame))
}
