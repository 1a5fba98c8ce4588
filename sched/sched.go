// Package sched provides the scheduler collaborator for the kernel core:
// schedulable units of execution backed by goroutines, a current-thread
// registry, blocking and unblocking, and a simulated interrupt level that
// brackets the synchronization primitives' critical sections.
//
// The package deliberately implements no scheduling policy. Unblock makes
// a thread runnable again and leaves the ordering of runnable threads to
// the Go runtime; priority ordering of waiters is the wait queues'
// business, not ours.
package sched

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v2"

	"kernos/list"
)

// Thread priorities. Higher values run, and are woken, first.
const (
	PriMin     = 0
	PriDefault = 31
	PriMax     = 63
)

// Thread is one schedulable unit of execution.
type Thread struct {
	ID       int
	Name     string
	Priority int

	// Elem links the thread into at most one wait list at a time. The
	// synchronization primitives own the lists; the thread owns itself.
	Elem list.Element[*Thread]

	// State carries the owning subsystem's per-thread record. The
	// process lifecycle manager keeps its process here.
	State any

	wake chan struct{}
}

// HigherPriority orders threads by descending priority. Used as the
// comparator for wait queues: the front of an ordered queue is the
// highest-priority waiter, FIFO among equals.
func HigherPriority(a, b *Thread) bool {
	return a.Priority > b.Priority
}

var (
	// threads maps goroutine ids to their Thread. Threads are
	// registered once at spawn and read on every Current call.
	threads = xsync.NewIntegerMapOf[int64, *Thread]()

	tidCounter int64
)

func newThread(name string, priority int) *Thread {
	t := &Thread{
		ID:       int(atomic.AddInt64(&tidCounter, 1)),
		Name:     name,
		Priority: priority,
		wake:     make(chan struct{}, 1),
	}
	t.Elem.Value = t
	return t
}

// Spawn creates a new unit of execution running fn and returns its
// thread record. fn starts concurrently with the caller; when it
// returns, the thread is gone.
func Spawn(name string, priority int, fn func()) *Thread {
	t := newThread(name, priority)
	go func() {
		g := goid()
		threads.Store(g, t)
		defer threads.Delete(g)
		fn()
	}()
	return t
}

// Current returns the calling unit of execution's thread record.
//
// A goroutine not created by Spawn (the initial test or main goroutine)
// is adopted on first use as a default-priority thread, so the
// primitives can be exercised from any context.
func Current() *Thread {
	g := goid()
	if t, ok := threads.Load(g); ok {
		return t
	}
	t := newThread("main", PriDefault)
	threads.Store(g, t)
	return t
}

// Block removes the calling thread from runnability until a matching
// Unblock. The caller must have disabled interrupts; Block reenables
// them while parked and disables them again before returning, so the
// caller's critical section resumes intact.
func Block() {
	t := Current()
	g := goid()
	if atomic.LoadInt64(&kernelGoid) != g {
		panic("sched: block with interrupts enabled")
	}
	atomic.StoreInt64(&kernelGoid, 0)
	kernel.Unlock()
	<-t.wake
	kernel.Lock()
	atomic.StoreInt64(&kernelGoid, g)
}

// Unblock makes t runnable again. Exactly one Unblock must follow each
// Block; the wake token is buffered so the waker never sleeps.
func Unblock(t *Thread) {
	t.wake <- struct{}{}
}

// Exit terminates the calling unit of execution. It never returns.
// Deferred calls in the thread body still run.
func Exit() {
	threads.Delete(goid())
	goexit()
}
