// Package reader implements the per-drive streaming reader: for each
// plot in a drive group, read the current round's scoop bytes in
// sector-aligned chunks into pool buffers, tag the last buffer of the last
// plot finished, and honor cancellation between chunks without losing
// work already handed to workers.
package reader

import (
	"github.com/danhill2020/signum-miner/internal/bufferpool"
	"github.com/danhill2020/signum-miner/internal/diskhealth"
	"github.com/danhill2020/signum-miner/internal/ioutil"
	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/plot"
	"github.com/danhill2020/signum-miner/internal/shabal"
)

// RoundSpec is the puzzle data the Miner Controller hands the reader at
// the start of a round.
type RoundSpec struct {
	RoundID    uint64
	Height     uint64
	BaseTarget uint64
	GenSig     [32]byte
}

// Pool is the subset of bufferpool.Pool the reader needs.
type Pool interface {
	AcquireEmpty(done <-chan struct{}) (*bufferpool.Buffer, bool)
	PublishFilled(b *bufferpool.Buffer)
}

// Driver reads one drive group for one round. Two implementations exist
// (Sync, Async); both call runRound and are behaviorally identical from
// the Miner Controller's point of view, differing only in whether the
// goroutine locks an OS thread for the drive's lifetime.
type Driver struct {
	Group    *plot.DriveGroup
	Pool     Pool
	Health   *diskhealth.Registry
	Log      logging.Sink
	DirectIO bool

	// ChunkCount is the number of sector-sized chunks read per pool
	// buffer; buffer byte size is Group.SectorSize * ChunkCount.
	ChunkCount int
}

// runRound performs one full pass over the drive group's plots for one
// round, honoring cancellation between chunks. It is shared by both
// driver modes.
func (d *Driver) runRound(cancel <-chan struct{}, round RoundSpec) {
	scoop := shabal.ScoopNumber(round.GenSig, round.Height)
	health := d.Health.Drive(d.Group.DriveID)

	for plotIdx, f := range d.Group.Files {
		select {
		case <-cancel:
			return
		default:
		}
		isLastPlot := plotIdx == len(d.Group.Files)-1
		d.readPlot(cancel, round, f, scoop, isLastPlot, health)
	}
}

func (d *Driver) readPlot(cancel <-chan struct{}, round RoundSpec, f *plot.File, scoop int, isLastPlot bool, health *diskhealth.Counters) {
	file, err := ioutil.Open(f.Path, d.DirectIO && f.DirectIOEligible)
	if err != nil {
		health.RecordFailure()
		d.Log.Warn("reader: open failed", "plot", f.Filename(), "err", err)
		return
	}
	defer file.Close()

	scoopOffset, _ := plot.ScoopOffset(scoop, f.Nonces)
	skipIndex := f.EffectiveStart - f.Start
	readOffset := scoopOffset + int64(skipIndex)*plot.ScoopSize
	readLen := int64(f.EffectiveNonces) * plot.ScoopSize

	sectorSize := d.Group.SectorSize
	chunkBytes := sectorSize * d.ChunkCount

	remaining := readLen
	curOffset := readOffset

	for remaining > 0 {
		select {
		case <-cancel:
			return
		default:
		}

		buf, ok := d.Pool.AcquireEmpty(cancel)
		if !ok {
			return
		}

		chunks := d.ChunkCount
		wantBytes := int64(chunkBytes)
		if wantBytes > remaining {
			// Round up to the next whole sector so SectorRead's
			// alignment arithmetic still holds; excess bytes beyond
			// remaining are simply unused by workers (nonce_count is
			// derived from actual bytes read past the prefix, capped at
			// what remains of this plot's scoop region).
			chunks = int((remaining + int64(sectorSize) - 1) / int64(sectorSize))
			if chunks == 0 {
				chunks = 1
			}
		}

		prefix, n, err := ioutil.SectorRead(file, curOffset, chunks, sectorSize, buf.Data)
		if err != nil {
			health.RecordFailure()
			d.Log.Warn("reader: read failed", "plot", f.Filename(), "offset", curOffset, "err", err)
			// The buffer was never published, so it holds no consumer
			// reference yet; take one so Release returns it to the pool.
			buf.Acquire(1)
			buf.Release()
			return
		}
		health.RecordSuccess()

		nonceCount := (n - prefix) / plot.ScoopSize
		if nonceCount < 0 {
			nonceCount = 0
		}
		if maxNonces := int(remaining / plot.ScoopSize); nonceCount > maxNonces {
			nonceCount = maxNonces
		}
		consumed := int64(nonceCount) * plot.ScoopSize
		startNonce := f.EffectiveStart + uint64((curOffset-readOffset)/plot.ScoopSize)

		finished := isLastPlot && remaining-consumed <= 0

		buf.Meta = bufferpool.Meta{
			PlotID:       f.Filename(),
			AccountID:    f.AccountID,
			StartNonce:   startNonce,
			NonceCount:   uint64(nonceCount),
			Height:       round.Height,
			BaseTarget:   round.BaseTarget,
			GenSig:       round.GenSig,
			FinishedFlag: finished,
			Prefix:       prefix,
		}
		buf.Acquire(1)
		d.Pool.PublishFilled(buf)

		curOffset += consumed
		remaining -= consumed
		if consumed == 0 {
			return
		}
	}
}
