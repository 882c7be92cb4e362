// Package puzzle implements the Puzzle Source: it polls getMiningInfo on
// a fixed interval and publishes
// each new puzzle to the Miner Controller, silently ignoring responses
// that do not advance the chain height.
package puzzle

import (
	"context"
	"time"

	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/upstream"
)

// Puzzle is one round's immutable mining target.
type Puzzle struct {
	Height         uint64
	BaseTarget     uint64
	GenSig         [32]byte
	TargetDeadline uint64 // 0 means "no upstream-supplied cap"
}

// Listener receives each new puzzle as it's discovered. Implemented by
// the Miner Controller; kept as a narrow interface here so puzzle has no
// import-time dependency on internal/miner.
type Listener interface {
	OnPuzzle(Puzzle)
}

// Source polls a Client for mining info and forwards height-advancing
// puzzles to a Listener.
type Source struct {
	Client   upstream.Client
	Interval time.Duration
	Log      logging.Sink

	lastHeight uint64
}

// NewSource builds a Source. lastHeight starts at 0 so the very first
// poll response with a non-zero height is always published.
func NewSource(client upstream.Client, interval time.Duration, log logging.Sink) *Source {
	return &Source{Client: client, Interval: interval, Log: log}
}

// Run polls until ctx is cancelled, delivering each new puzzle to l.
func (s *Source) Run(ctx context.Context, l Listener) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.poll(ctx, l)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx, l)
		}
	}
}

func (s *Source) poll(ctx context.Context, l Listener) {
	info, err := s.Client.GetMiningInfo(ctx)
	if err != nil {
		s.Log.Warn("puzzle: getMiningInfo failed", "err", err)
		return
	}
	if info.Height <= s.lastHeight {
		return
	}
	s.lastHeight = info.Height
	l.OnPuzzle(Puzzle{
		Height:         info.Height,
		BaseTarget:     info.BaseTarget,
		GenSig:         info.GenerationSignature,
		TargetDeadline: info.TargetDeadline,
	})
}
