// Package cpuworker implements the CPU Worker: drains filled buffers,
// computes the minimum deadline across all scoops in the buffer using
// the SIMD-dispatched Shabal-256 core, and returns buffers to the empty
// pool.
package cpuworker

import "github.com/danhill2020/signum-miner/internal/satmath"

// Candidate is one buffer's best (account_id, nonce, deadline_raw)
// triple, pre-division.
type Candidate struct {
	Height      uint64
	AccountID   uint64
	Nonce       uint64
	DeadlineRaw uint64
	BaseTarget  uint64

	// DriveID and FinishedFlag are carried through from the source
	// buffer's metadata so the Miner Controller can detect round
	// completion without a second channel.
	DriveID      string
	FinishedFlag bool

	// Sentinel marks a candidate emitted for an empty (zero-nonce)
	// finished buffer: it carries no real (account, nonce, deadline)
	// data and exists purely to carry FinishedFlag/DriveID to the Miner
	// Controller.
	Sentinel bool
}

// Deadline returns candidate.deadline_raw / base_target, saturating to
// math.MaxUint64 when base_target is zero.
func (c Candidate) Deadline() uint64 {
	return satmath.Div(c.DeadlineRaw, c.BaseTarget)
}
