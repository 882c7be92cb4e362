// Package gpuworker implements the GPU Worker: identical to the CPU
// Worker but delegating the hash to an OpenCL device. OpenCL
// device/kernel management is treated as an external collaborator, so
// this package only fixes the Device interface a real binding would
// implement, plus two in-module implementations used when
// no real binding is wired: NullDevice (always errors, exercising the
// "drop this buffer's contribution" path) and SimDevice (a pure-Go
// reference that computes the identical Shabal-256 minimum the CPU
// Worker would, letting the rest of the pipeline be exercised without
// real hardware).
package gpuworker

import (
	"errors"

	"github.com/danhill2020/signum-miner/internal/bufferpool"
	"github.com/danhill2020/signum-miner/internal/cpuworker"
	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/satmath"
	"github.com/danhill2020/signum-miner/internal/shabal"
)

// ErrNoDevice is returned by NullDevice for every call.
var ErrNoDevice = errors.New("gpuworker: no OpenCL device configured")

// Device is the OpenCL device/kernel surface the GPU Worker drives: copy
// scoop data in, run the kernel, read the minimum-deadline result out.
type Device interface {
	// MinDeadline returns the (nonce offset within buffer, deadline_raw)
	// of the minimum-deadline scoop in data, or an error if the device
	// operation failed.
	MinDeadline(gensig [32]byte, data []byte, nonceCount int) (offset uint64, deadlineRaw uint64, err error)
}

// NullDevice always fails; internal/app wires it into GPU workers when
// gpuMemMapping is unset.
type NullDevice struct{}

func (NullDevice) MinDeadline([32]byte, []byte, int) (uint64, uint64, error) {
	return 0, 0, ErrNoDevice
}

// SimDevice computes the same Shabal-256 minimum the CPU worker would,
// using the variant shabal.Select picks; it exists so tests and demo runs can
// exercise the GPU code path without real hardware.
type SimDevice struct{}

func (SimDevice) MinDeadline(gensig [32]byte, data []byte, nonceCount int) (uint64, uint64, error) {
	if nonceCount == 0 {
		return 0, 0, errors.New("gpuworker: empty buffer")
	}
	results := make([]uint64, nonceCount)
	variant := shabal.Select()
	variant.HashScoops(gensig, data, nonceCount, results)
	best := results[0]
	bestIdx := 0
	for i := 1; i < nonceCount; i++ {
		if results[i] < best {
			best = results[i]
			bestIdx = i
		}
	}
	return uint64(bestIdx), best, nil
}

// Pool is the minimal bufferpool surface the worker needs.
type Pool interface {
	AcquireFilled(done <-chan struct{}) (*bufferpool.Buffer, bool)
}

// Emit is called once per buffer that yields a candidate.
type Emit func(cpuworker.Candidate)

// Worker drains filled buffers and delegates hashing to a Device. On a
// device error the buffer is still returned to the empty pool with no
// candidate emitted for that buffer; the device is never disabled
// mid-run.
type Worker struct {
	driveID string
	device  Device
	pool    Pool
	log     logging.Sink
}

func New(driveID string, device Device, pool Pool, log logging.Sink) *Worker {
	return &Worker{driveID: driveID, device: device, pool: pool, log: log}
}

func (w *Worker) Run(done <-chan struct{}, emit Emit) {
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
			emit(cpuworker.Candidate{
				Height:       meta.Height,
				DriveID:      w.driveID,
				FinishedFlag: true,
				Sentinel:     true,
			})
		}
		return
	}
	view := buf.Data[meta.Prefix:]
	offset, deadlineRaw, err := w.device.MinDeadline(meta.GenSig, view, int(meta.NonceCount))
	if err != nil {
		w.log.Error("gpuworker: device error, dropping buffer contribution", "err", err, "plot", meta.PlotID)
		if meta.FinishedFlag {
			emit(cpuworker.Candidate{Height: meta.Height, DriveID: w.driveID, FinishedFlag: true, Sentinel: true})
		}
		return
	}
	nonce := satmath.Add(offset, meta.StartNonce)
	emit(cpuworker.Candidate{
		Height:       meta.Height,
		AccountID:    meta.AccountID,
		Nonce:        nonce,
		DeadlineRaw:  deadlineRaw,
		BaseTarget:   meta.BaseTarget,
		DriveID:      w.driveID,
		FinishedFlag: meta.FinishedFlag,
	})
}
