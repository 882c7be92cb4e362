package reader

// RunAsync executes one round without pinning an OS thread to it — the
// asynchronous task-per-drive mode. Go exposes no portable non-blocking
// file-read primitive, so both driver modes issue the same blocking
// os.File.ReadAt; the distinction that matters for resource accounting is
// whether the goroutine reserves a dedicated OS thread (RunSync) or
// shares the runtime's scheduler pool (RunAsync). Both are behaviorally
// identical to callers.
func (d *Driver) RunAsync(cancel <-chan struct{}, round RoundSpec) {
	d.runRound(cancel, round)
}
