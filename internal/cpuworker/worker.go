package cpuworker

import (
	"runtime"

	"github.com/danhill2020/signum-miner/internal/bufferpool"
	"github.com/danhill2020/signum-miner/internal/ioutil"
	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/satmath"
	"github.com/danhill2020/signum-miner/internal/shabal"
)

// Pool is the set of buffers a Worker drains; it is the minimal surface
// cpuworker needs from bufferpool.Pool, letting tests substitute a fake.
type Pool interface {
	AcquireFilled(done <-chan struct{}) (*bufferpool.Buffer, bool)
}

// Emit is called once per drained buffer with the buffer's best candidate.
// The caller (Miner Controller) decides acceptance; the worker itself does
// no filtering beyond computing the minimum.
type Emit func(Candidate)

// Worker drains filled buffers from one drive's pool, computes the
// minimum-deadline candidate per buffer with the process-wide selected
// SIMD Variant, and emits it.
type Worker struct {
	id      int
	driveID string
	pool    Pool
	variant shabal.Variant
	log     logging.Sink
	pinCPU  bool
	cpuIdx  int

	// resultsBuf is reused across buffers to avoid per-buffer allocation;
	// it is only ever touched by this worker's own goroutine.
	resultsBuf []uint64
}

// New constructs a Worker. pinCPU/cpuIdx are used only if the caller wants
// this worker's goroutine's OS thread pinned to a core; when pinCPU is
// true, Run locks its goroutine to an OS thread before pinning it.
func New(id int, driveID string, pool Pool, variant shabal.Variant, log logging.Sink, pinCPU bool, cpuIdx int) *Worker {
	return &Worker{id: id, driveID: driveID, pool: pool, variant: variant, log: log, pinCPU: pinCPU, cpuIdx: cpuIdx}
}

// Run drains buffers until done fires, calling emit for every buffer that
// yields a candidate. A buffer with zero nonces yields no candidate; if it
// carries the finished flag, a Sentinel candidate is emitted instead.
func (w *Worker) Run(done <-chan struct{}, emit Emit) {
	if w.pinCPU {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		ioutil.PinCurrentThread(w.cpuIdx)
	}
	for {
		buf, ok := w.pool.AcquireFilled(done)
		if !ok {
			return
		}
		w.process(buf, emit)
	}
}

func (w *Worker) process(buf *bufferpool.Buffer, emit Emit) {
	defer buf.Release()

	meta := buf.Meta
	if meta.NonceCount == 0 {
		if meta.FinishedFlag {
			emit(Candidate{
				Height:       meta.Height,
				DriveID:      w.driveID,
				FinishedFlag: true,
				Sentinel:     true,
			})
		}
		return
	}
	if cap(w.resultsBuf) < int(meta.NonceCount) {
		w.resultsBuf = make([]uint64, meta.NonceCount)
	}
	results := w.resultsBuf[:meta.NonceCount]

	view := buf.Data[meta.Prefix:]
	w.variant.HashScoops(meta.GenSig, view, int(meta.NonceCount), results)

	bestIdx := 0
	best := results[0]
	for i := 1; i < len(results); i++ {
		if results[i] < best {
			best = results[i]
			bestIdx = i
		}
	}

	nonce := satmath.Add(meta.StartNonce, uint64(bestIdx))
	emit(Candidate{
		Height:       meta.Height,
		AccountID:    meta.AccountID,
		Nonce:        nonce,
		DeadlineRaw:  best,
		BaseTarget:   meta.BaseTarget,
		DriveID:      w.driveID,
		FinishedFlag: meta.FinishedFlag,
	})
}
