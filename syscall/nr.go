package syscall

// System call numbers. The handler reads the number from the frame's
// AX register and the arguments from DI, SI, DX.
const (
	SysHalt = iota
	SysExit
	SysFork
	SysExec
	SysWait
	SysCreate
	SysRemove
	SysOpen
	SysFilesize
	SysRead
	SysWrite
	SysSeek
	SysTell
	SysClose
	SysDup2

	// Accepted and ignored.
	SysMmap
	SysMunmap
	SysChdir
	SysMkdir
	SysReaddir
	SysIsdir
	SysInumber
	SysSymlink
	SysMount
	SysUmount
)
