// Package miner implements the Miner Controller: the round state machine
// that ingests puzzles, starts/cancels the Reader, filters and tracks
// the best candidate, and routes qualifying candidates to the
// Submitter. It is the fan-in point the rest of the pipeline reports to.
package miner

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/danhill2020/signum-miner/internal/config"
	"github.com/danhill2020/signum-miner/internal/cpuworker"
	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/metricsink"
	"github.com/danhill2020/signum-miner/internal/puzzle"
	"github.com/danhill2020/signum-miner/internal/reader"
	"github.com/danhill2020/signum-miner/internal/submitter"
)

// State is one of the round lifecycle states.
type State int

const (
	Idle State = iota
	Scanning
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// RoundStarter launches one reader driver per drive group for a round.
// The Miner Controller doesn't own drive groups itself — the Plot
// Registry does — so this narrow seam is how it asks for readers to run,
// letting internal/app choose sync or async drivers per settings.
type RoundStarter interface {
	StartRound(cancel <-chan struct{}, spec reader.RoundSpec)
}

// roundState is the mutable record of one round: identity, the puzzle it
// was started from, and the evolving best candidate and finished-drive
// set. Replaced wholesale on every new puzzle.
type roundState struct {
	id             uint64
	tag            string // diagnostic-only uuid, never used for correctness
	height         uint64
	baseTarget     uint64
	genSig         [32]byte
	targetDeadline uint64
	startedAt      time.Time
	driveCount     int

	// best is guarded by mu, held only for the compare-and-swap.
	mu   sync.Mutex
	best *cpuworker.Candidate

	finishedDrives map[string]bool

	scannedNonces atomic.Uint64
	completed     atomic.Bool
}

// Dispatcher is the Submitter surface the Miner Controller depends on,
// kept narrow so tests can substitute a fake instead of a real bounded
// queue and retry loop.
type Dispatcher interface {
	TryEnqueue(job submitter.Job) bool
	// SetCurrentRound records the new round id and its effective target
	// deadline (account-override-independent: puzzle target deadline
	// combined with the global config target, whichever is smaller). A
	// job from an earlier round is only abandoned once both the round
	// has moved on and the job's own deadline no longer qualifies under
	// this target; a job that still qualifies keeps retrying instead.
	SetCurrentRound(roundID uint64, targetDeadline uint64)
}

// Controller is the Miner Controller.
type Controller struct {
	settings   config.Settings
	starter    RoundStarter
	submit     Dispatcher
	log        logging.Sink
	metrics    metricsink.Sink
	driveCount int
	capacityGB float64
	hostname   string

	mu        sync.Mutex
	state     State
	round     *roundState
	cancel    chan struct{}
	nextRound uint64
}

// New builds a Controller. driveCount is the number of drive groups the
// current Plot Registry holds — round completion waits for exactly that
// many distinct drive ids to report finished_flag.
func New(settings config.Settings, starter RoundStarter, submit Dispatcher, driveCount int, capacityGB float64, hostname string, log logging.Sink, metrics metricsink.Sink) *Controller {
	return &Controller{
		settings:   settings,
		starter:    starter,
		submit:     submit,
		driveCount: driveCount,
		capacityGB: capacityGB,
		hostname:   hostname,
		log:        log,
		metrics:    metrics,
		state:      Idle,
	}
}

// State returns the controller's current state, for diagnostics/metrics.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnPuzzle implements puzzle.Listener. A puzzle whose height does not
// strictly advance the current round is ignored: equal-height
// re-announcements and rollbacks are both treated as no-ops
// (see DESIGN.md for the rollback-handling decision).
func (c *Controller) OnPuzzle(p puzzle.Puzzle) {
	c.mu.Lock()
	if c.round != nil && p.Height <= c.round.height {
		c.mu.Unlock()
		c.log.Debug("miner: ignoring non-advancing puzzle", "height", p.Height)
		return
	}
	if c.cancel != nil {
		close(c.cancel)
	}

	c.nextRound++
	roundID := c.nextRound
	tag := uuid.NewString()

	rs := &roundState{
		id:             roundID,
		tag:            tag,
		height:         p.Height,
		baseTarget:     p.BaseTarget,
		genSig:         p.GenSig,
		targetDeadline: p.TargetDeadline,
		startedAt:      time.Now(),
		driveCount:     c.driveCount,
		finishedDrives: make(map[string]bool, c.driveCount),
	}
	c.round = rs
	c.state = Scanning
	cancel := make(chan struct{})
	c.cancel = cancel
	c.mu.Unlock()

	c.submit.SetCurrentRound(roundID, c.baseTarget(p.TargetDeadline))
	c.metrics.SetGauge("miner_round_id", float64(roundID), nil)
	c.metrics.SetGauge("miner_height", float64(p.Height), nil)
	c.log.Info("miner: round started", "round", roundID, "tag", tag, "height", p.Height, "base_target", p.BaseTarget)

	if c.driveCount == 0 {
		c.completeRound(rs)
		return
	}
	c.starter.StartRound(cancel, reader.RoundSpec{
		RoundID:    roundID,
		Height:     p.Height,
		BaseTarget: p.BaseTarget,
		GenSig:     p.GenSig,
	})
}

// OnCandidate is passed directly as both cpuworker.Emit and
// gpuworker.Emit: the fan-in point every worker's best-per-buffer
// candidate flows through.
func (c *Controller) OnCandidate(cand cpuworker.Candidate) {
	c.mu.Lock()
	rs := c.round
	c.mu.Unlock()
	if rs == nil || rs.completed.Load() {
		return
	}

	if cand.Height != rs.height {
		return // stale: from a round this controller has already left
	}

	if cand.FinishedFlag {
		c.noteDriveFinished(rs, cand.DriveID)
	}

	// A pure finished-flag sentinel (no nonces in its buffer) carries no
	// candidate data; nothing further to evaluate.
	if cand.Sentinel {
		return
	}

	rs.scannedNonces.Add(1)

	deadline := cand.Deadline()
	target := c.effectiveTarget(cand.AccountID, rs.targetDeadline)
	if deadline > target {
		return
	}

	rs.mu.Lock()
	improves := rs.best == nil || deadline < rs.best.Deadline()
	if improves {
		cc := cand
		rs.best = &cc
	}
	rs.mu.Unlock()

	if !improves && c.settings.SubmitOnlyBest {
		return
	}

	override, hasOverride := c.settings.AccountByID(cand.AccountID)
	secret := ""
	if hasOverride {
		secret = override.SecretPhrase
	}

	c.submit.TryEnqueue(submitter.Job{
		RoundID:      rs.id,
		AccountID:    cand.AccountID,
		Nonce:        cand.Nonce,
		Deadline:     deadline,
		BlockHeight:  rs.height,
		SecretPhrase: secret,
		CapacityGB:   c.capacityGB,
		Hostname:     c.hostname,
	})
}

// baseTarget is min(target_deadline_from_puzzle, global_config_target),
// treating an unset (zero) value as "no cap". It excludes per-account
// overrides, since it's used at round-start time before any candidate
// (and its account) is known.
func (c *Controller) baseTarget(puzzleTarget uint64) uint64 {
	target := uint64(^uint64(0))
	if puzzleTarget != 0 {
		target = puzzleTarget
	}
	if c.settings.GlobalTargetDeadline != 0 && c.settings.GlobalTargetDeadline < target {
		target = c.settings.GlobalTargetDeadline
	}
	return target
}

// effectiveTarget is min(target_deadline_from_puzzle, per_account_override,
// global_config_target), treating an unset (zero) value as "no cap".
func (c *Controller) effectiveTarget(accountID, puzzleTarget uint64) uint64 {
	target := c.baseTarget(puzzleTarget)
	if override, ok := c.settings.AccountByID(accountID); ok && override.TargetDeadlineOverride != 0 {
		if override.TargetDeadlineOverride < target {
			target = override.TargetDeadlineOverride
		}
	}
	return target
}

func (c *Controller) noteDriveFinished(rs *roundState, driveID string) {
	rs.mu.Lock()
	rs.finishedDrives[driveID] = true
	done := len(rs.finishedDrives) >= rs.driveCount
	rs.mu.Unlock()
	if done {
		c.completeRound(rs)
	}
}

// completeRound transitions the controller to Completed and emits the
// round summary to metrics and logs. It is idempotent: only the first
// caller to observe completion emits.
func (c *Controller) completeRound(rs *roundState) {
	if !rs.completed.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	if c.round == rs {
		c.state = Completed
	}
	c.mu.Unlock()

	rs.mu.Lock()
	var bestDeadline uint64 = ^uint64(0)
	if rs.best != nil {
		bestDeadline = rs.best.Deadline()
	}
	rs.mu.Unlock()

	wallTime := time.Since(rs.startedAt)
	c.metrics.SetGauge("miner_round_best_deadline", float64(bestDeadline), nil)
	c.metrics.SetGauge("miner_round_scanned_nonces", float64(rs.scannedNonces.Load()), nil)
	c.metrics.Observe("miner_round_wall_time_seconds", wallTime.Seconds(), nil)
	c.log.Info("miner: round completed",
		"round", rs.id, "height", rs.height,
		"best_deadline", fmt.Sprint(bestDeadline),
		"scanned_nonces", rs.scannedNonces.Load(),
		"wall_time", wallTime)
}
