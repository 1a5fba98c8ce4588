package synch

import (
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"kernos/sched"
)

var _ = Describe("condition variables", func() {
	var (
		l *Lock
		c *Cond
	)

	BeforeEach(func() {
		l = NewLock()
		c = &Cond{}
	})

	Specify("wait releases the lock while sleeping", func() {
		var wg sync.WaitGroup
		wg.Add(1)
		sched.Spawn("waiter", sched.PriDefault, func() {
			defer wg.Done()
			l.Acquire()
			c.Wait(l)
			l.Release()
		})
		Eventually(c.waiterCount).Should(Equal(1))

		// The waiter sleeps inside its critical section, yet the
		// lock is free for us.
		l.Acquire()
		c.Signal(l)
		l.Release()
		wait(&wg)
	})

	Specify("signal wakes one waiter, broadcast wakes the rest", func() {
		ready := false
		woken := 0

		var wg sync.WaitGroup
		wg.Add(3)
		for i := 0; i < 3; i++ {
			sched.Spawn("waiter", sched.PriDefault, func() {
				defer wg.Done()
				l.Acquire()
				for !ready {
					c.Wait(l)
				}
				woken++
				l.Release()
			})
		}
		Eventually(c.waiterCount).Should(Equal(3))

		l.Acquire()
		ready = true
		c.Signal(l)
		l.Release()

		Eventually(c.waiterCount).Should(Equal(2))

		l.Acquire()
		c.Broadcast(l)
		l.Release()
		wait(&wg)

		l.Acquire()
		Expect(woken).To(Equal(3))
		Expect(c.waiterCount()).To(BeZero())
		l.Release()
	})

	Specify("signal wakes the highest-priority waiter", func() {
		woken := make(chan int, 2)

		var wg sync.WaitGroup
		wg.Add(2)
		spawnWaiter := func(priority int) {
			before := c.waiterCount()
			sched.Spawn("waiter", priority, func() {
				defer wg.Done()
				l.Acquire()
				c.Wait(l)
				l.Release()
				woken <- priority
			})
			Eventually(c.waiterCount).Should(Equal(before + 1))
		}
		spawnWaiter(10)
		spawnWaiter(40)

		l.Acquire()
		c.Signal(l)
		l.Release()
		Eventually(woken).Should(Receive(Equal(40)))

		l.Acquire()
		c.Signal(l)
		l.Release()
		Eventually(woken).Should(Receive(Equal(10)))
		wait(&wg)
	})

	Specify("signal without waiters is a no-op", func() {
		l.Acquire()
		c.Signal(l)
		c.Broadcast(l)
		l.Release()
	})
})

var _ = Describe("condition variable misuse", func() {
	var (
		l *Lock
		c *Cond
	)

	BeforeEach(func() {
		l = NewLock()
		c = &Cond{}
	})

	Specify("wait without holding the lock panics", func() {
		Expect(func() { c.Wait(l) }).To(Panic())
	})

	Specify("signal without holding the lock panics", func() {
		Expect(func() { c.Signal(l) }).To(Panic())
	})

	Specify("wait in interrupt context panics", func() {
		l.Acquire()
		defer l.Release()

		sched.EnterIntrContext()
		defer sched.ExitIntrContext()
		Expect(func() { c.Wait(l) }).To(Panic())
	})
})
