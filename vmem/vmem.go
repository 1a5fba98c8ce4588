// Package vmem is the virtual-memory collaborator: per-process address
// spaces mapping page-aligned user virtual addresses to page frames,
// with the byte-granular access helpers the syscall layer uses to
// validate and copy user memory.
//
// The layout constants follow the usual small-kernel split: everything
// below KernBase is user space, page zero is never mappable, and the
// user stack grows down from UserStack.
package vmem

import (
	"github.com/puzpuzpuz/xsync/v2"

	"kernos/mem"
)

const (
	// KernBase is the first kernel virtual address. User mappings
	// live strictly below it.
	KernBase uintptr = 0x8004000000

	// UserStack is the initial user stack pointer. The stack page is
	// mapped immediately below it.
	UserStack uintptr = 0x47480000
)

// IsUserAddr reports whether va lies in user space. Page zero is
// excluded so null-pointer bugs fault instead of dereferencing a
// mapping.
func IsUserAddr(va uintptr) bool {
	return va >= mem.PageSize && va < KernBase
}

// PageBase rounds va down to its page boundary.
func PageBase(va uintptr) uintptr {
	return va &^ (mem.PageSize - 1)
}

// PageOffset returns va's offset within its page.
func PageOffset(va uintptr) uintptr {
	return va & (mem.PageSize - 1)
}

type page struct {
	frame    []byte
	writable bool
}

// AddrSpace maps page-aligned user virtual addresses to page frames.
// An address space belongs to one process; only the fork path reads a
// foreign one, and then only while its owner is blocked.
type AddrSpace struct {
	pages *xsync.MapOf[uint64, page]
}

// New creates an empty address space, or nil if the page allocator is
// exhausted. The root frame is charged to the allocator so creation
// participates in failure injection.
func New() *AddrSpace {
	root := mem.Alloc(mem.Zero)
	if root == nil {
		return nil
	}
	mem.Free(root)
	return &AddrSpace{pages: xsync.NewIntegerMapOf[uint64, page]()}
}

// Map installs frame at page-aligned va. It fails if va is not a user
// page boundary or is already mapped; the caller keeps ownership of the
// frame on failure.
func (as *AddrSpace) Map(va uintptr, frame []byte, writable bool) bool {
	if PageOffset(va) != 0 || !IsUserAddr(va) || len(frame) != mem.PageSize {
		return false
	}
	_, loaded := as.pages.LoadOrStore(uint64(va), page{frame: frame, writable: writable})
	return !loaded
}

// Mapping returns the frame mapped at page-aligned va.
func (as *AddrSpace) Mapping(va uintptr) ([]byte, bool) {
	pg, ok := as.pages.Load(uint64(va))
	if !ok {
		return nil, false
	}
	return pg.frame, true
}

// Unmap removes the mapping at va and frees its frame.
func (as *AddrSpace) Unmap(va uintptr) {
	if pg, ok := as.pages.LoadAndDelete(uint64(va)); ok {
		mem.Free(pg.frame)
	}
}

// Destroy unmaps every page and frees its frame. The address space is
// empty but reusable afterwards, so a failed load can be torn down and
// the space destroyed again without harm.
func (as *AddrSpace) Destroy() {
	as.pages.Range(func(va uint64, pg page) bool {
		as.pages.Delete(va)
		mem.Free(pg.frame)
		return true
	})
}

// Activate makes the address space the one the simulated MMU would
// translate through. Bookkeeping only: accessors take the address space
// explicitly.
func (as *AddrSpace) Activate() {}

// Pages reports the number of mapped pages.
func (as *AddrSpace) Pages() int {
	return as.pages.Size()
}

// Copy deep-copies every user mapping into a new address space.
// Kernel-only ranges are never present here and are skipped if they
// were. On failure the partial copy is destroyed and Copy returns nil.
func (as *AddrSpace) Copy() *AddrSpace {
	dst := New()
	if dst == nil {
		return nil
	}

	ok := true
	as.pages.Range(func(va uint64, pg page) bool {
		if uintptr(va) >= KernBase {
			return true
		}
		frame := mem.Alloc(mem.Zero)
		if frame == nil {
			ok = false
			return false
		}
		copy(frame, pg.frame)
		if !dst.Map(uintptr(va), frame, pg.writable) {
			mem.Free(frame)
			ok = false
			return false
		}
		return true
	})
	if !ok {
		dst.Destroy()
		return nil
	}
	return dst
}
