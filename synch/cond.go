package synch

import (
	"kernos/list"
	"kernos/sched"
)

// condWaiter parks one waiting thread on a private zero-valued
// semaphore. The priority is sampled at wait time so signalers can
// order wakeups without touching the sleeping thread.
type condWaiter struct {
	sema     Semaphore
	priority int
	elem     list.Element[*condWaiter]
}

func waiterBefore(a, b *condWaiter) bool {
	return a.priority > b.priority
}

// Cond is a Mesa-style condition variable. A thread waits for a
// condition under a lock; another thread signals the condition under
// the same lock. The wakeup is only a hint: by the time the waiter
// reacquires the lock the condition may have changed again, so waiters
// must recheck it in a loop.
//
// The zero value is an empty condition ready for use. One lock may
// protect any number of conditions.
type Cond struct {
	waiters list.List[*condWaiter]
}

// Wait atomically releases lock and sleeps until the condition is
// signaled, then reacquires lock before returning. The lock must be
// held by the caller. Must not be called from interrupt context.
func (c *Cond) Wait(lock *Lock) {
	if sched.Context() {
		panic("synch: condition wait from interrupt context")
	}
	if !lock.HeldByCurrentThread() {
		panic("synch: condition wait without holding the lock")
	}

	w := &condWaiter{priority: sched.Current().Priority}
	w.elem.Value = w
	c.waiters.InsertOrdered(&w.elem, waiterBefore)
	lock.Release()
	w.sema.Down()
	lock.Acquire()
}

// Signal wakes the highest-priority waiter, if any. The lock protecting
// the condition must be held by the caller.
func (c *Cond) Signal(lock *Lock) {
	if !lock.HeldByCurrentThread() {
		panic("synch: condition signal without holding the lock")
	}

	if !c.waiters.Empty() {
		c.waiters.PopFront().Value.sema.Up()
	}
}

// Broadcast wakes every thread currently waiting on the condition. The
// lock protecting the condition must be held by the caller.
func (c *Cond) Broadcast(lock *Lock) {
	for !c.waiters.Empty() {
		c.Signal(lock)
	}
}
