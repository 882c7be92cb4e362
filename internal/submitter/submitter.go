// Package submitter implements a bounded, non-blocking queue of
// submitNonce jobs drained by a background worker that retries transient
// upstream failures with backoff and abandons a job once it's accepted,
// or once a newer round has started and the job's deadline no longer
// qualifies under that round's target.
package submitter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/metricsink"
	"github.com/danhill2020/signum-miner/internal/upstream"
)

// QueueCapacity bounds the number of in-flight jobs; TryEnqueue drops
// rather than blocks once full.
const QueueCapacity = 1000

// Job is one submission attempt.
type Job struct {
	RoundID      uint64
	AccountID    uint64
	Nonce        uint64
	Deadline     uint64
	BlockHeight  uint64
	SecretPhrase string
	CapacityGB   float64
	Hostname     string
}

// Submitter owns the bounded queue and retry loop.
type Submitter struct {
	client  upstream.Client
	log     logging.Sink
	metrics metricsink.Sink
	queue   chan Job

	currentRound  atomic.Uint64
	currentTarget atomic.Uint64
}

// New builds a Submitter. Run must be called to start draining the queue.
func New(client upstream.Client, log logging.Sink, metrics metricsink.Sink) *Submitter {
	s := &Submitter{
		client:  client,
		log:     log,
		metrics: metrics,
		queue:   make(chan Job, QueueCapacity),
	}
	s.currentTarget.Store(^uint64(0))
	return s
}

// SetCurrentRound is called by the Miner Controller whenever a round
// starts. A job belonging to an earlier round is abandoned only once its
// own deadline no longer qualifies under the new round's target;
// otherwise it keeps retrying across the round boundary, since puzzles
// arrive on a seconds-scale cadence and a still-qualifying deadline is
// worth submitting late rather than discarding.
func (s *Submitter) SetCurrentRound(roundID uint64, targetDeadline uint64) {
	s.currentRound.Store(roundID)
	s.currentTarget.Store(targetDeadline)
}

// TryEnqueue attempts a non-blocking enqueue, returning false if the
// queue is full. The caller (Miner Controller) is expected to treat a
// full queue as "this candidate's submission was dropped", not an error.
func (s *Submitter) TryEnqueue(j Job) bool {
	select {
	case s.queue <- j:
		s.metrics.SetGauge("submitter_queue_depth", float64(len(s.queue)), nil)
		return true
	default:
		s.metrics.IncCounter("submitter_queue_full_total", 1, nil)
		return false
	}
}

// Run drains the queue until ctx is cancelled. One job is processed at a
// time; a stuck retry loop on one job simply delays the next. A job from
// an earlier round whose deadline no longer qualifies is abandoned at its
// next attempt rather than retried to exhaustion.
func (s *Submitter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.process(ctx, job)
		}
	}
}

func (s *Submitter) process(ctx context.Context, job Job) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 5 * time.Minute
	bo := backoff.WithContext(b, ctx)

	operation := func() error {
		if s.isStale(job) {
			return backoff.Permanent(errStale)
		}
		result, err := s.client.SubmitNonce(ctx, upstream.SubmitNonceRequest{
			AccountID:    job.AccountID,
			Nonce:        job.Nonce,
			Deadline:     job.Deadline,
			BlockHeight:  job.BlockHeight,
			SecretPhrase: job.SecretPhrase,
			CapacityGB:   job.CapacityGB,
			Hostname:     job.Hostname,
		})
		if err != nil {
			return err
		}
		if !result.Accepted {
			s.log.Warn("submitter: rejected", "account", job.AccountID, "nonce", job.Nonce, "reason", result.ErrorDescription)
			return backoff.Permanent(errRejected)
		}
		return nil
	}

	err := backoff.Retry(operation, bo)
	switch err {
	case nil:
		s.metrics.IncCounter("submitter_accepted_total", 1, nil)
		s.log.Info("submitter: accepted", "account", job.AccountID, "nonce", job.Nonce, "deadline", job.Deadline)
	case errStale:
		s.metrics.IncCounter("submitter_abandoned_total", 1, nil)
		s.log.Debug("submitter: abandoned stale job", "round", job.RoundID, "account", job.AccountID)
	case errRejected:
		s.metrics.IncCounter("submitter_rejected_total", 1, nil)
	default:
		s.metrics.IncCounter("submitter_gaveup_total", 1, nil)
		s.log.Error("submitter: gave up retrying", "account", job.AccountID, "nonce", job.Nonce, "err", err)
	}
}

func (s *Submitter) isStale(job Job) bool {
	if job.RoundID == s.currentRound.Load() {
		return false
	}
	return job.Deadline > s.currentTarget.Load()
}

var (
	errStale    = staleError{}
	errRejected = rejectedError{}
)

type staleError struct{}

func (staleError) Error() string { return "submitter: job superseded by newer round" }

type rejectedError struct{}

func (rejectedError) Error() string { return "submitter: job rejected by upstream" }
