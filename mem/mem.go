// Package mem is the page allocator collaborator. It hands out
// page-sized frames, optionally zeroed, and supports an allocation
// limit so callers' failure paths can be exercised deterministically.
package mem

import "sync"

// PageSize is the allocation granularity. Every frame is exactly one
// page.
const PageSize = 4096

// Flag controls page allocation.
type Flag uint8

const (
	// Zero returns the page filled with zero bytes. Pages allocated
	// without Zero are filled with a poison pattern so callers that
	// depend on zeroed memory fail loudly.
	Zero Flag = 1 << iota
)

const poison = 0xcc

var (
	mu        sync.Mutex
	allocated int
	remaining = -1
)

// Alloc returns a new page frame, or nil if the allocator is exhausted.
func Alloc(flags Flag) []byte {
	mu.Lock()
	if remaining == 0 {
		mu.Unlock()
		return nil
	}
	if remaining > 0 {
		remaining--
	}
	allocated++
	mu.Unlock()

	pg := make([]byte, PageSize)
	if flags&Zero == 0 {
		for i := range pg {
			pg[i] = poison
		}
	}
	return pg
}

// Free returns a frame to the allocator. Freeing nil is a no-op so
// failure paths can unwind unconditionally.
func Free(pg []byte) {
	if pg == nil {
		return
	}
	if len(pg) != PageSize {
		panic("mem: free of a non-page frame")
	}
	mu.Lock()
	allocated--
	if allocated < 0 {
		mu.Unlock()
		panic("mem: double free")
	}
	if remaining >= 0 {
		remaining++
	}
	mu.Unlock()
}

// Allocated reports the number of live frames. Tests use it to prove
// that failure paths free everything they mapped.
func Allocated() int {
	mu.Lock()
	defer mu.Unlock()
	return allocated
}

// SetLimit bounds the number of further successful allocations. A
// negative limit removes the bound. Frees give the budget back.
func SetLimit(n int) {
	mu.Lock()
	remaining = n
	mu.Unlock()
}
