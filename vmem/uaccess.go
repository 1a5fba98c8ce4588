package vmem

// User memory accessors. Every access validates the address against the
// caller's mappings; a false return means the user pointer was bad and
// the caller should kill the offending process.

// ReadByte reads one byte at user address va.
func (as *AddrSpace) ReadByte(va uintptr) (byte, bool) {
	if !IsUserAddr(va) {
		return 0, false
	}
	pg, ok := as.pages.Load(uint64(PageBase(va)))
	if !ok {
		return 0, false
	}
	return pg.frame[PageOffset(va)], true
}

// WriteByte writes one byte at user address va. Writes to read-only
// mappings fail.
func (as *AddrSpace) WriteByte(va uintptr, b byte) bool {
	if !IsUserAddr(va) {
		return false
	}
	pg, ok := as.pages.Load(uint64(PageBase(va)))
	if !ok || !pg.writable {
		return false
	}
	pg.frame[PageOffset(va)] = b
	return true
}

// CopyIn copies len(dst) bytes from user address va into dst, crossing
// page boundaries as needed.
func (as *AddrSpace) CopyIn(dst []byte, va uintptr) bool {
	for len(dst) > 0 {
		if !IsUserAddr(va) {
			return false
		}
		pg, ok := as.pages.Load(uint64(PageBase(va)))
		if !ok {
			return false
		}
		off := PageOffset(va)
		n := copy(dst, pg.frame[off:])
		dst = dst[n:]
		va += uintptr(n)
	}
	return true
}

// CopyOut copies src to user address va, crossing page boundaries as
// needed. Fails on any read-only page in the range.
func (as *AddrSpace) CopyOut(va uintptr, src []byte) bool {
	for len(src) > 0 {
		if !IsUserAddr(va) {
			return false
		}
		pg, ok := as.pages.Load(uint64(PageBase(va)))
		if !ok || !pg.writable {
			return false
		}
		off := PageOffset(va)
		n := copy(pg.frame[off:], src)
		src = src[n:]
		va += uintptr(n)
	}
	return true
}

// ReadString reads a null-terminated string of at most max bytes from
// user address va.
func (as *AddrSpace) ReadString(va uintptr, max int) (string, bool) {
	buf := make([]byte, 0, 64)
	for i := 0; i < max; i++ {
		b, ok := as.ReadByte(va + uintptr(i))
		if !ok {
			return "", false
		}
		if b == 0 {
			return string(buf), true
		}
		buf = append(buf, b)
	}
	return "", false
}
