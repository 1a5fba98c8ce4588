package sched

import (
	"sync"
	"sync/atomic"
)

// Level is an interrupt level.
type Level bool

const (
	// On means interrupts are enabled.
	On Level = true
	// Off means interrupts are disabled.
	Off Level = false
)

var (
	// kernel serializes every interrupts-disabled critical section.
	// Whoever holds it is "running with interrupts off".
	kernel sync.Mutex

	// kernelGoid is the goroutine id of the holder, 0 when nobody
	// has interrupts disabled. Lets Disable nest on one thread.
	kernelGoid int64

	intrContext atomic.Bool
)

// Disable turns interrupts off and returns the previous level. Calls
// nest: a thread that already has interrupts off gets Off back and a
// matching SetLevel is a no-op.
func Disable() Level {
	g := goid()
	if atomic.LoadInt64(&kernelGoid) == g {
		return Off
	}
	kernel.Lock()
	atomic.StoreInt64(&kernelGoid, g)
	return On
}

// SetLevel restores a level previously returned by Disable. It must run
// on the thread that called Disable.
func SetLevel(old Level) {
	if old == On {
		if atomic.LoadInt64(&kernelGoid) != goid() {
			panic("sched: interrupt level restored by another thread")
		}
		atomic.StoreInt64(&kernelGoid, 0)
		kernel.Unlock()
	}
}

// Context reports whether the caller runs in simulated external
// interrupt context. Primitives that may sleep must not be used there.
func Context() bool {
	return intrContext.Load()
}

// EnterIntrContext and ExitIntrContext bracket a simulated external
// interrupt handler. Only the non-blocking primitive variants may run
// in between.
func EnterIntrContext() { intrContext.Store(true) }

// ExitIntrContext leaves simulated external interrupt context.
func ExitIntrContext() { intrContext.Store(false) }
