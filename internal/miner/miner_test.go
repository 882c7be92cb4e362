package miner

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danhill2020/signum-miner/internal/config"
	"github.com/danhill2020/signum-miner/internal/cpuworker"
	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/metricsink"
	"github.com/danhill2020/signum-miner/internal/puzzle"
	"github.com/danhill2020/signum-miner/internal/reader"
	"github.com/danhill2020/signum-miner/internal/submitter"
)

type recordingStarter struct {
	mu    sync.Mutex
	specs []reader.RoundSpec
}

func (s *recordingStarter) StartRound(cancel <-chan struct{}, spec reader.RoundSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specs = append(s.specs, spec)
}

func (s *recordingStarter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.specs)
}

type fakeDispatcher struct {
	mu     sync.Mutex
	jobs   []submitter.Job
	round  uint64
	target uint64
}

func (d *fakeDispatcher) TryEnqueue(job submitter.Job) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return true
}

func (d *fakeDispatcher) SetCurrentRound(roundID uint64, targetDeadline uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.round = roundID
	d.target = targetDeadline
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

func newTestController(t *testing.T, settings config.Settings, driveCount int) (*Controller, *recordingStarter, *fakeDispatcher) {
	t.Helper()
	starter := &recordingStarter{}
	sub := &fakeDispatcher{}
	c := New(settings, starter, sub, driveCount, 1.0, "test-host", logging.NewNop(), metricsink.NewNop())
	return c, starter, sub
}

func TestOnPuzzleStartsRoundAndAssignsMonotoneID(t *testing.T) {
	c, starter, _ := newTestController(t, config.Default(), 1)

	c.OnPuzzle(puzzle.Puzzle{Height: 100, BaseTarget: 10})
	require.Equal(t, 1, starter.count())
	assert.Equal(t, Scanning, c.State())

	c.OnPuzzle(puzzle.Puzzle{Height: 101, BaseTarget: 20})
	assert.Equal(t, 2, starter.count())
	assert.Equal(t, uint64(2), starter.specs[1].RoundID)
}

func TestOnPuzzleIgnoresNonAdvancingHeight(t *testing.T) {
	c, starter, _ := newTestController(t, config.Default(), 1)

	c.OnPuzzle(puzzle.Puzzle{Height: 100})
	c.OnPuzzle(puzzle.Puzzle{Height: 100})
	c.OnPuzzle(puzzle.Puzzle{Height: 99})

	assert.Equal(t, 1, starter.count())
}

func TestOnCandidateDropsWrongHeight(t *testing.T) {
	c, _, _ := newTestController(t, config.Default(), 1)
	c.OnPuzzle(puzzle.Puzzle{Height: 100, BaseTarget: 1, TargetDeadline: 1000})

	c.OnCandidate(cpuworker.Candidate{Height: 99, AccountID: 1, Nonce: 1, DeadlineRaw: 10, BaseTarget: 1})

	rs := c.round
	rs.mu.Lock()
	best := rs.best
	rs.mu.Unlock()
	assert.Nil(t, best, "a candidate from a stale height must never become best")
}

func TestOnCandidateRespectsEffectiveTarget(t *testing.T) {
	settings := config.Default()
	settings.GlobalTargetDeadline = 50
	c, _, _ := newTestController(t, settings, 1)
	c.OnPuzzle(puzzle.Puzzle{Height: 100, BaseTarget: 1, TargetDeadline: 1000})

	// deadline = 100 / 1 = 100, above the global target of 50: rejected.
	c.OnCandidate(cpuworker.Candidate{Height: 100, AccountID: 1, Nonce: 1, DeadlineRaw: 100, BaseTarget: 1})
	rs := c.round
	rs.mu.Lock()
	assert.Nil(t, rs.best)
	rs.mu.Unlock()

	// deadline = 20 / 1 = 20, within target: accepted.
	c.OnCandidate(cpuworker.Candidate{Height: 100, AccountID: 1, Nonce: 2, DeadlineRaw: 20, BaseTarget: 1})
	rs.mu.Lock()
	require.NotNil(t, rs.best)
	assert.Equal(t, uint64(2), rs.best.Nonce)
	rs.mu.Unlock()
}

func TestOnCandidateTracksBestAcrossImprovements(t *testing.T) {
	c, _, _ := newTestController(t, config.Default(), 1)
	c.OnPuzzle(puzzle.Puzzle{Height: 100, BaseTarget: 1})

	c.OnCandidate(cpuworker.Candidate{Height: 100, AccountID: 1, Nonce: 1, DeadlineRaw: 500, BaseTarget: 1})
	c.OnCandidate(cpuworker.Candidate{Height: 100, AccountID: 1, Nonce: 2, DeadlineRaw: 900, BaseTarget: 1}) // worse, still dispatched
	c.OnCandidate(cpuworker.Candidate{Height: 100, AccountID: 1, Nonce: 3, DeadlineRaw: 100, BaseTarget: 1}) // improves

	rs := c.round
	rs.mu.Lock()
	defer rs.mu.Unlock()
	require.NotNil(t, rs.best)
	assert.Equal(t, uint64(3), rs.best.Nonce)
	assert.Equal(t, uint64(100), rs.best.Deadline())
}

func TestRoundCompletesWhenAllDrivesFinish(t *testing.T) {
	c, _, _ := newTestController(t, config.Default(), 2)
	c.OnPuzzle(puzzle.Puzzle{Height: 100, BaseTarget: 1})
	assert.Equal(t, Scanning, c.State())

	c.OnCandidate(cpuworker.Candidate{Height: 100, DriveID: "a", FinishedFlag: true, Sentinel: true})
	assert.Equal(t, Scanning, c.State(), "one of two drives finishing must not complete the round")

	c.OnCandidate(cpuworker.Candidate{Height: 100, DriveID: "b", FinishedFlag: true, Sentinel: true})
	assert.Equal(t, Completed, c.State())
}

func TestRoundWithZeroDrivesCompletesImmediately(t *testing.T) {
	c, starter, _ := newTestController(t, config.Default(), 0)
	c.OnPuzzle(puzzle.Puzzle{Height: 100, BaseTarget: 1})

	assert.Equal(t, Completed, c.State())
	assert.Equal(t, 0, starter.count())
}

func TestSubmitOnlyBestSuppressesNonImprovingDispatch(t *testing.T) {
	settings := config.Default()
	settings.SubmitOnlyBest = true
	c, _, sub := newTestController(t, settings, 1)
	c.OnPuzzle(puzzle.Puzzle{Height: 100, BaseTarget: 1})

	c.OnCandidate(cpuworker.Candidate{Height: 100, AccountID: 1, Nonce: 1, DeadlineRaw: 100, BaseTarget: 1})
	require.Equal(t, 1, sub.count())

	c.OnCandidate(cpuworker.Candidate{Height: 100, AccountID: 1, Nonce: 2, DeadlineRaw: 500, BaseTarget: 1}) // worse
	assert.Equal(t, 1, sub.count(), "a non-improving candidate must not be dispatched when submit_only_best is set")

	c.OnCandidate(cpuworker.Candidate{Height: 100, AccountID: 1, Nonce: 3, DeadlineRaw: 10, BaseTarget: 1}) // improves
	assert.Equal(t, 2, sub.count())
}

func TestSubmitAllDispatchesNonImprovingCandidatesUnderTarget(t *testing.T) {
	c, _, sub := newTestController(t, config.Default(), 1)
	c.OnPuzzle(puzzle.Puzzle{Height: 100, BaseTarget: 1})

	c.OnCandidate(cpuworker.Candidate{Height: 100, AccountID: 1, Nonce: 1, DeadlineRaw: 100, BaseTarget: 1})
	c.OnCandidate(cpuworker.Candidate{Height: 100, AccountID: 1, Nonce: 2, DeadlineRaw: 500, BaseTarget: 1}) // worse, still under no cap

	assert.Equal(t, 2, sub.count(), "with submit_only_best unset every qualifying candidate is dispatched")
}
