package reader

import "runtime"

// RunSync executes one round on a dedicated, locked OS thread — the
// blocking thread-per-drive mode. Call it in its own goroutine; it
// returns when the round's plots are exhausted or cancel fires.
func (d *Driver) RunSync(cancel <-chan struct{}, round RoundSpec) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	d.runRound(cancel, round)
}
