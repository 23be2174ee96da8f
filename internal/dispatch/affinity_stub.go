//go:build !linux

package dispatch

import "runtime"

// DefaultThreadCount falls back to GOMAXPROCS on platforms without a
// CPU affinity mask syscall.
func DefaultThreadCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}
