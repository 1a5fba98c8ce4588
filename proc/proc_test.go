package proc_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	"kernos/fsys"
	"kernos/mem"
	"kernos/proc"
	"kernos/sched"
)

var _ = Describe("process creation and wait", func() {
	Specify("a created process runs its program and wait collects the status", func() {
		install("answer", func(f *sched.Frame) int {
			return 42
		})

		tid := proc.Create("answer")
		Expect(tid).To(BeNumerically(">", 0))
		Expect(proc.Current().Wait(tid)).To(Equal(42))
		Eventually(console).Should(gbytes.Say(`answer: exit\(42\)`))
	})

	Specify("waiting for an unknown id fails immediately", func() {
		Expect(proc.Current().Wait(99999)).To(Equal(-1))
	})

	Specify("a child can be waited for only once", func() {
		install("once", func(f *sched.Frame) int { return 5 })

		tid := proc.Create("once")
		Expect(proc.Current().Wait(tid)).To(Equal(5))
		Expect(proc.Current().Wait(tid)).To(Equal(-1))
	})

	Specify("an empty command line is rejected", func() {
		Expect(proc.Create("  ")).To(Equal(proc.TidError))
	})

	Specify("a missing executable exits with -1", func() {
		tid := proc.Create("no-such-program")
		Expect(proc.Current().Wait(tid)).To(Equal(-1))
		Eventually(console).Should(gbytes.Say(`no-such-program: exit\(-1\)`))
	})

	Specify("wait order does not matter: child may exit first", func() {
		install("quick", func(f *sched.Frame) int { return 1 })

		tid := proc.Create("quick")
		Eventually(console).Should(gbytes.Say(`quick: exit\(1\)`))
		Expect(proc.Current().Wait(tid)).To(Equal(1))
	})
})

var _ = Describe("process exit", func() {
	Specify("exit releases every page the image mapped", func() {
		base := mem.Allocated()
		install("leaver", func(f *sched.Frame) int { return 0 })

		tid := proc.Create("leaver")
		Expect(proc.Current().Wait(tid)).To(Equal(0))
		Expect(mem.Allocated()).To(Equal(base))
	})

	Specify("exit closes open descriptors", func() {
		Expect(fsys.Create("scratch", 16)).To(BeTrue())
		install("opener", func(f *sched.Frame) int {
			p := proc.Current()
			if p.InstallFile(fsys.Open("scratch")) != proc.FdMin {
				return 1
			}
			return 0
		})

		tid := proc.Create("opener")
		Expect(proc.Current().Wait(tid)).To(Equal(0))

		// The deferred-delete path proves the descriptor was closed:
		// a removed file's storage survives only while open.
		Expect(fsys.Remove("scratch")).To(BeTrue())
		Expect(fsys.Create("scratch", 16)).To(BeTrue())
	})

	Specify("the running executable is write-protected until exit", func() {
		install("sealed", func(f *sched.Frame) int {
			h := fsys.Open("sealed")
			defer h.Close()
			if h.Write([]byte{1}) != 0 {
				return 1 // the write must be denied
			}
			return 0
		})

		tid := proc.Create("sealed")
		Expect(proc.Current().Wait(tid)).To(Equal(0))

		// After exit the name is writable again.
		h := fsys.Open("sealed")
		defer h.Close()
		Expect(h.Write([]byte{1})).To(Equal(1))
	})
})
