package synch

import "kernos/sched"

// Lock is a mutual exclusion lock with an owner. Unlike a bare binary
// semaphore it records which thread holds it, so recursive acquisition
// and foreign release are detectable; both panic.
//
// A Lock must be initialized with Init or created with NewLock before
// use; the zero value is permanently unavailable.
type Lock struct {
	holder *sched.Thread
	sema   Semaphore
}

// NewLock returns an initialized, unheld lock.
func NewLock() *Lock {
	l := &Lock{}
	l.Init()
	return l
}

// Init makes the lock ready for use and unheld.
func (l *Lock) Init() {
	l.holder = nil
	l.sema.Init(1)
}

// Acquire waits until the lock is available and takes ownership for the
// calling thread. It panics if the caller already holds the lock, and
// must not be called from interrupt context.
func (l *Lock) Acquire() {
	if sched.Context() {
		panic("synch: acquire from interrupt context")
	}
	if l.HeldByCurrentThread() {
		panic("synch: recursive lock acquisition")
	}

	l.sema.Down()
	l.holder = sched.Current()
}

// TryAcquire takes the lock if it is immediately available and reports
// whether it did. It never sleeps. Panics if the caller already holds
// the lock.
func (l *Lock) TryAcquire() bool {
	if l.HeldByCurrentThread() {
		panic("synch: recursive lock acquisition")
	}

	if !l.sema.TryDown() {
		return false
	}
	l.holder = sched.Current()
	return true
}

// Release gives up the lock, which must be held by the calling thread.
func (l *Lock) Release() {
	if !l.HeldByCurrentThread() {
		panic("synch: release of lock not held by caller")
	}

	l.holder = nil
	l.sema.Up()
}

// HeldByCurrentThread reports whether the calling thread holds the
// lock. There is no race-free way to ask about an arbitrary thread, so
// only the caller can be tested.
func (l *Lock) HeldByCurrentThread() bool {
	return l.holder == sched.Current()
}
