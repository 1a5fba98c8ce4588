package proc

import (
	"github.com/puzpuzpuz/xsync/v2"

	"kernos/sched"
)

// Program is an executable's body: the code that runs once exec has
// built the image and the initial register frame. The returned value is
// the process's exit status, as if main returned it.
//
// A forked child re-enters its program body with the duplicated frame:
// the return register reads zero and IP carries whatever resume point
// the parent stored before forking. Bodies that fork set frame.IP to a
// marker and branch on it at entry, the way resumed user code continues
// at its saved instruction pointer.
type Program func(frame *sched.Frame) int

var programs = xsync.NewMapOf[Program]()

// RegisterProgram binds name to body. Exec of a file named name runs
// body after loading the image; an image with no registered body just
// exits 0.
func RegisterProgram(name string, body Program) {
	programs.Store(name, body)
}

// UnregisterProgram removes a binding.
func UnregisterProgram(name string) {
	programs.Delete(name)
}

func lookupProgram(name string) Program {
	if body, ok := programs.Load(name); ok {
		return body
	}
	return func(*sched.Frame) int { return 0 }
}
