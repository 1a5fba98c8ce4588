package proc_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"kernos/mem"
	"kernos/proc"
	"kernos/sched"
	"kernos/vmem"
)

// Byte offsets into a serialized image, for corrupting specific header
// fields.
const (
	offPhnum      = 56
	offPhdr       = 64
	offPhdrOff    = offPhdr + 8
	offPhdrVaddr  = offPhdr + 16
	offPhdrFilesz = offPhdr + 32
	offPhdrMemsz  = offPhdr + 40
)

func validImage() []byte {
	return proc.NewImage(loadBase).
		Segment(loadBase, []byte{0x90}, mem.PageSize, false).
		Build()
}

var _ = Describe("image loading", func() {
	exec := func(name string, img []byte) int {
		installImage(name, img)
		return proc.Current().Exec(name)
	}

	Specify("a valid image loads and runs", func() {
		install("valid", func(f *sched.Frame) int { return 0 })
		tid := proc.Create("valid")
		Expect(proc.Current().Wait(tid)).To(Equal(0))
	})

	Specify("a corrupt magic number is rejected", func() {
		img := validImage()
		img[0] = 0
		Expect(exec("badmagic", img)).To(Equal(-1))
	})

	Specify("an absurd segment count is rejected", func() {
		img := validImage()
		binary.LittleEndian.PutUint16(img[offPhnum:], 2000)

		base := mem.Allocated()
		Expect(exec("badphnum", img)).To(Equal(-1))
		Expect(mem.Allocated()).To(Equal(base))

		// The failed load leaves the process imageless but sound: a
		// later exec of a good image succeeds.
		install("recovered", func(f *sched.Frame) int { return 9 })
		tid := proc.Create("recovered")
		Expect(proc.Current().Wait(tid)).To(Equal(9))
	})

	Specify("a segment with memory size below file size is rejected", func() {
		img := validImage()
		binary.LittleEndian.PutUint64(img[offPhdrMemsz:], 0)
		Expect(exec("badmemsz", img)).To(Equal(-1))
	})

	Specify("a segment mapping page zero is rejected", func() {
		img := validImage()
		binary.LittleEndian.PutUint64(img[offPhdrVaddr:], 0)
		binary.LittleEndian.PutUint64(img[offPhdrOff:], 0)
		Expect(exec("pagezero", img)).To(Equal(-1))
	})

	Specify("a segment reaching kernel space is rejected", func() {
		img := validImage()
		binary.LittleEndian.PutUint64(img[offPhdrVaddr:], uint64(vmem.KernBase))
		Expect(exec("kernel", img)).To(Equal(-1))
	})

	Specify("a file offset outside the file is rejected", func() {
		img := validImage()
		// Keep the offset page-congruent with the address so only
		// the bounds rule can reject it.
		binary.LittleEndian.PutUint64(img[offPhdrOff:], 10*mem.PageSize)
		Expect(exec("badoff", img)).To(Equal(-1))
	})

	Specify("a failed load after a mapped segment frees the partial image", func() {
		img := proc.NewImage(loadBase).
			Segment(loadBase, []byte{0x90}, mem.PageSize, false).
			Segment(loadBase+2*mem.PageSize, []byte{0x90}, mem.PageSize, true).
			Build()
		// Corrupt the second segment only; the first maps before the
		// load aborts.
		binary.LittleEndian.PutUint64(img[offPhdrMemsz+phdrStride:], 0)

		base := mem.Allocated()
		Expect(exec("partial", img)).To(Equal(-1))
		Expect(mem.Allocated()).To(Equal(base))
	})

	Specify("allocator exhaustion during load fails cleanly", func() {
		install("hungry", nil)
		base := mem.Allocated()
		mem.SetLimit(1)
		Expect(proc.Current().Exec("hungry")).To(Equal(-1))
		mem.SetLimit(-1)
		Expect(mem.Allocated()).To(Equal(base))
	})
})

const phdrStride = 56

var _ = Describe("argument passing", func() {
	Specify("the stack carries argc, argv, and the packed strings", func() {
		install("args", func(f *sched.Frame) int {
			as := proc.Current().AddrSpace()
			if f.DI != 3 {
				return 1
			}
			if f.SP%8 != 0 {
				return 2
			}
			// The fake return address sits at the stack pointer,
			// argv one word above it.
			if f.SI != f.SP+8 {
				return 3
			}

			word := func(va uintptr) (uintptr, bool) {
				var buf [8]byte
				if !as.CopyIn(buf[:], va) {
					return 0, false
				}
				return uintptr(binary.LittleEndian.Uint64(buf[:])), true
			}

			if ret, ok := word(f.SP); !ok || ret != 0 {
				return 4
			}
			want := []string{"args", "to", "pass"}
			for i, w := range want {
				ptr, ok := word(f.SI + uintptr(8*i))
				if !ok {
					return 5
				}
				s, ok := as.ReadString(ptr, 64)
				if !ok || s != w {
					return 6
				}
			}
			// argv[argc] terminates the vector.
			if null, ok := word(f.SI + 24); !ok || null != 0 {
				return 7
			}
			return 0
		})

		tid := proc.Create("args to pass")
		Expect(proc.Current().Wait(tid)).To(Equal(0))
	})
})
