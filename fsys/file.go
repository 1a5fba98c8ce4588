package fsys

// File is an open file: an inode reference plus an independent
// position. Duplicated handles share the inode but not the position, so
// a write through one handle never moves another handle's position
// while all of them see the same bytes.
type File struct {
	ino    *inode
	pos    int
	denied bool
	closed bool
}

func (f *File) check() {
	if f.closed {
		panic("fsys: use of a closed file")
	}
}

// Read reads up to len(p) bytes at the current position, advancing it.
// It returns the number of bytes read, 0 at end of file.
func (f *File) Read(p []byte) int {
	n := f.ReadAt(p, f.pos)
	f.pos += n
	return n
}

// ReadAt reads up to len(p) bytes at offset off without moving the
// position.
func (f *File) ReadAt(p []byte, off int) int {
	f.check()
	if off < 0 || off >= len(f.ino.data) {
		return 0
	}
	return copy(p, f.ino.data[off:])
}

// Write writes up to len(p) bytes at the current position, advancing
// it. Writes never grow the file: bytes past the end are dropped and
// the short count returned. Writes fail with 0 while any handle denies
// writing.
func (f *File) Write(p []byte) int {
	n := f.WriteAt(p, f.pos)
	f.pos += n
	return n
}

// WriteAt writes at offset off without moving the position.
func (f *File) WriteAt(p []byte, off int) int {
	f.check()
	if f.ino.denyWrite > 0 {
		return 0
	}
	if off < 0 || off >= len(f.ino.data) {
		return 0
	}
	return copy(f.ino.data[off:], p)
}

// Seek sets the position for the next Read or Write. Seeking past the
// end is allowed; reads there return 0 and writes are dropped.
func (f *File) Seek(pos int) {
	f.check()
	if pos < 0 {
		pos = 0
	}
	f.pos = pos
}

// Tell returns the current position.
func (f *File) Tell() int {
	f.check()
	return f.pos
}

// Length returns the file's size in bytes.
func (f *File) Length() int {
	f.check()
	return len(f.ino.data)
}

// Duplicate returns a new handle on the same file with its own copy of
// the current position. A write-denying handle's duplicate denies too.
func (f *File) Duplicate() *File {
	f.check()
	dirMu.Lock()
	f.ino.openCount++
	if f.denied {
		f.ino.denyWrite++
	}
	dirMu.Unlock()
	return &File{ino: f.ino, pos: f.pos, denied: f.denied}
}

// DenyWrite blocks writes to the file through any handle until this
// handle allows them again or closes.
func (f *File) DenyWrite() {
	f.check()
	if f.denied {
		return
	}
	f.denied = true
	dirMu.Lock()
	f.ino.denyWrite++
	dirMu.Unlock()
}

// AllowWrite undoes this handle's DenyWrite. Writes remain blocked
// while other handles still deny them.
func (f *File) AllowWrite() {
	f.check()
	if !f.denied {
		return
	}
	f.denied = false
	dirMu.Lock()
	f.ino.denyWrite--
	dirMu.Unlock()
}

// Close releases the handle, restoring write permission it held. The
// file's storage is reclaimed when the last handle on a removed file
// closes. Closing twice panics.
func (f *File) Close() {
	f.check()
	f.AllowWrite()
	f.closed = true

	dirMu.Lock()
	f.ino.openCount--
	if f.ino.openCount == 0 && f.ino.removed {
		f.ino.data = nil
	}
	dirMu.Unlock()
}
