//go:build linux

package dispatch

import "golang.org/x/sys/unix"

// DefaultThreadCount implements spec.md §4.3's affinity default: the
// count of bits set in the process's CPU affinity mask, floored at 1.
// Grounded on the teacher's runner.go, which already imports
// unix.CPUSet for per-queue pinning; this reuses the same type for the
// opposite direction (reading the mask instead of setting one bit in it).
func DefaultThreadCount() int {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return 1
	}
	n := mask.Count()
	if n < 1 {
		return 1
	}
	return n
}
