package sched

import "runtime"

// goid returns the calling goroutine's id by parsing the first line of
// its stack trace ("goroutine 123 [running]:"). Slow but portable; the
// registry lookups that need it sit on blocking paths, not hot loops.
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	const prefix = "goroutine "
	if n < len(prefix) || string(buf[:len(prefix)]) != prefix {
		panic("sched: unparsable goroutine header")
	}

	var id int64
	for i := len(prefix); i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	if id == 0 {
		panic("sched: unparsable goroutine id")
	}
	return id
}

func goexit() {
	runtime.Goexit()
}
