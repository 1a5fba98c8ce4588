package sched

// Frame is the register snapshot of a unit of execution at the user
// boundary. Fork copies the parent's frame for the child and zeroes the
// child's AX; exec rebuilds a frame for the fresh image.
type Frame struct {
	// AX carries the syscall number in and the return value out.
	AX uintptr
	// DI, SI, DX are the first three argument registers. After exec,
	// DI holds argc and SI the argv pointer.
	DI, SI, DX uintptr
	// SP is the user stack pointer, IP the instruction pointer.
	SP, IP uintptr
}
