// Package fsys is the file-system collaborator: a flat in-memory
// filesystem of fixed-size files and the file objects processes hold
// open. Files do not grow; writes past the end are truncated, the way a
// preallocated basic filesystem behaves.
//
// Removal is deferred unix-style: a removed file disappears from the
// namespace immediately but its contents stay readable through handles
// already open, and the storage goes away when the last handle closes.
//
// The package does no locking of its own beyond directory consistency;
// callers serialize file operations through the system-wide filesystem
// lock.
package fsys

import "sync"

const (
	// NFiles is the capacity of the filesystem's flat directory.
	NFiles = 128

	// NameMax is the longest accepted file name.
	NameMax = 128
)

type inode struct {
	data      []byte
	openCount int
	denyWrite int
	removed   bool
}

var (
	dirMu sync.Mutex
	dir   = make(map[string]*inode)
)

// Format discards every file and open-file reference. Tests call it to
// start from an empty disk.
func Format() {
	dirMu.Lock()
	dir = make(map[string]*inode)
	dirMu.Unlock()
}

// Create makes a file of exactly size bytes, zero-filled. It fails if
// the name is empty, too long, or taken.
func Create(name string, size int) bool {
	if name == "" || len(name) > NameMax || size < 0 {
		return false
	}
	dirMu.Lock()
	defer dirMu.Unlock()
	if _, ok := dir[name]; ok {
		return false
	}
	if len(dir) >= NFiles {
		return false
	}
	dir[name] = &inode{data: make([]byte, size)}
	return true
}

// Remove deletes a file from the namespace. Open handles keep working;
// the contents are reclaimed when the last one closes.
func Remove(name string) bool {
	dirMu.Lock()
	defer dirMu.Unlock()
	ino, ok := dir[name]
	if !ok {
		return false
	}
	ino.removed = true
	delete(dir, name)
	return true
}

// Open returns a handle on the named file with position 0, or nil if no
// such file exists.
func Open(name string) *File {
	dirMu.Lock()
	defer dirMu.Unlock()
	ino, ok := dir[name]
	if !ok {
		return nil
	}
	ino.openCount++
	return &File{ino: ino}
}

