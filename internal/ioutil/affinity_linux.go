//go:build linux

package ioutil

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// PinCurrentThread attempts to pin the calling OS thread to a single CPU
// core. Callers must have already called runtime.LockOSThread. Failure is
// silently ignored: the thread pool is still usable unpinned.
func PinCurrentThread(cpu int) {
	n := runtime.NumCPU()
	if n == 0 {
		n = 1
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu % n)
	_ = unix.SchedSetaffinity(0, &set)
}
