// Package synch implements the kernel synchronization primitives:
// counting semaphores, locks, and Mesa-style condition variables.
//
// All three keep their waiters on an ordered intrusive list, highest
// priority first and FIFO among equal priorities, and rely on the sched
// collaborator only to block and unblock threads. Mutation happens with
// interrupts disabled for the duration of each check-and-act sequence.
//
// Misuse of the primitives is a programming error and panics: acquiring
// a held lock, releasing somebody else's lock, waiting on a condition
// without its lock, or sleeping from interrupt context.
package synch

import (
	"kernos/list"
	"kernos/sched"
)

// Semaphore is a nonnegative counter with two atomic operators: Down
// waits for the value to become positive and decrements it, Up
// increments it and wakes one waiter if any.
//
// The zero value is a usable semaphore with value 0. Use Init for a
// different initial value. The caller owns the storage; a semaphore is
// never destroyed explicitly.
type Semaphore struct {
	value   uint
	waiters list.List[*sched.Thread]
}

// Init sets the semaphore's initial value. It must not be called on a
// semaphore that already has waiters.
func (s *Semaphore) Init(value uint) {
	s.value = value
	s.waiters.Init()
}

// Down waits for the semaphore's value to become positive, then
// atomically decrements it.
//
// Down may sleep, so it must not be called from interrupt context. On
// wake the loop rechecks the value: with several wake sources a woken
// thread can lose the race for the token and must queue again.
func (s *Semaphore) Down() {
	if sched.Context() {
		panic("synch: down from interrupt context")
	}

	old := sched.Disable()
	for s.value == 0 {
		s.waiters.InsertOrdered(&sched.Current().Elem, sched.HigherPriority)
		sched.Block()
	}
	s.value--
	sched.SetLevel(old)
}

// TryDown decrements the semaphore only if its value is positive and
// reports whether it did. It never sleeps and may be called from
// interrupt context.
func (s *Semaphore) TryDown() bool {
	old := sched.Disable()
	ok := s.value > 0
	if ok {
		s.value--
	}
	sched.SetLevel(old)
	return ok
}

// Up increments the semaphore's value and wakes the highest-priority
// waiter, if any. The value is incremented whether or not a waiter
// existed; the woken thread races for it like everyone else.
//
// Up never sleeps and may be called from interrupt context.
func (s *Semaphore) Up() {
	old := sched.Disable()
	if !s.waiters.Empty() {
		sched.Unblock(s.waiters.PopFront().Value)
	}
	s.value++
	sched.SetLevel(old)
}
