package ioutil

import (
	"runtime"
	"testing"
)

// PinCurrentThread is best-effort: on every platform it must simply not
// panic, with or without a prior LockOSThread.
func TestPinCurrentThreadDoesNotPanic(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	assertNoPanic(t, func() { PinCurrentThread(0) })
	assertNoPanic(t, func() { PinCurrentThread(runtime.NumCPU() + 1) })
}

func assertNoPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("PinCurrentThread panicked: %v", r)
		}
	}()
	fn()
}
