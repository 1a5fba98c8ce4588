package synch

import (
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"kernos/sched"
)

var _ = Describe("lock ownership", func() {
	var l *Lock

	BeforeEach(func() {
		l = NewLock()
	})

	Specify("acquire and release track the holder", func() {
		Expect(l.HeldByCurrentThread()).To(BeFalse())

		l.Acquire()
		Expect(l.HeldByCurrentThread()).To(BeTrue())

		l.Release()
		Expect(l.HeldByCurrentThread()).To(BeFalse())
	})

	Specify("try-acquire takes a free lock", func() {
		Expect(l.TryAcquire()).To(BeTrue())
		Expect(l.HeldByCurrentThread()).To(BeTrue())
		l.Release()
	})

	Specify("try-acquire fails for another thread's lock", func() {
		l.Acquire()

		got := true
		var wg sync.WaitGroup
		wg.Add(1)
		sched.Spawn("contender", sched.PriDefault, func() {
			defer wg.Done()
			got = l.TryAcquire()
		})
		wait(&wg)

		Expect(got).To(BeFalse())
		l.Release()
	})

	Specify("a sleeping acquirer gets the lock on release", func() {
		l.Acquire()

		var wg sync.WaitGroup
		wg.Add(1)
		sched.Spawn("acquirer", sched.PriDefault, func() {
			defer wg.Done()
			l.Acquire()
			l.Release()
		})
		Eventually(l.sema.waiterCount).Should(Equal(1))

		l.Release()
		wait(&wg)
		Expect(l.HeldByCurrentThread()).To(BeFalse())
	})
})

var _ = Describe("lock misuse", func() {
	var l *Lock

	BeforeEach(func() {
		l = NewLock()
	})

	Specify("recursive acquire panics", func() {
		l.Acquire()
		defer l.Release()
		Expect(func() { l.Acquire() }).To(Panic())
		Expect(func() { l.TryAcquire() }).To(Panic())
	})

	Specify("releasing an unheld lock panics", func() {
		Expect(func() { l.Release() }).To(Panic())
	})

	Specify("acquire in interrupt context panics", func() {
		sched.EnterIntrContext()
		defer sched.ExitIntrContext()
		Expect(func() { l.Acquire() }).To(Panic())
	})
})
