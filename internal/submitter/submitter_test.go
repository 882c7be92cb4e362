package submitter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/metricsink"
	"github.com/danhill2020/signum-miner/internal/upstream"
)

type fakeClient struct {
	mu    sync.Mutex
	calls int
	fn    func(calls int) (upstream.SubmitResult, error)
}

func (f *fakeClient) GetMiningInfo(context.Context) (upstream.MiningInfo, error) {
	return upstream.MiningInfo{}, nil
}

func (f *fakeClient) SubmitNonce(ctx context.Context, req upstream.SubmitNonceRequest) (upstream.SubmitResult, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	return f.fn(n)
}

func TestTryEnqueueRespectsCapacity(t *testing.T) {
	s := New(&fakeClient{fn: func(int) (upstream.SubmitResult, error) { return upstream.SubmitResult{Accepted: true}, nil }}, logging.NewNop(), metricsink.NewNop())

	for i := 0; i < QueueCapacity; i++ {
		require.True(t, s.TryEnqueue(Job{RoundID: 1}))
	}
	assert.False(t, s.TryEnqueue(Job{RoundID: 1}), "queue must reject once full rather than block")
}

func TestProcessAcceptsOnSuccess(t *testing.T) {
	client := &fakeClient{fn: func(int) (upstream.SubmitResult, error) { return upstream.SubmitResult{Accepted: true, Deadline: 42}, nil }}
	s := New(client, logging.NewNop(), metricsink.NewNop())
	s.SetCurrentRound(1, 1000)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.process(ctx, Job{RoundID: 1, AccountID: 7, Nonce: 99})

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, 1, client.calls)
}

func TestProcessAbandonsStaleJobThatNoLongerQualifies(t *testing.T) {
	client := &fakeClient{fn: func(int) (upstream.SubmitResult, error) {
		t.Fatal("a stale job must never reach the upstream client")
		return upstream.SubmitResult{}, nil
	}}
	s := New(client, logging.NewNop(), metricsink.NewNop())
	// job below belongs to round 1, already superseded by round 2, and its
	// deadline (500) exceeds the new round's target (100): abandoned.
	s.SetCurrentRound(2, 100)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.process(ctx, Job{RoundID: 1, AccountID: 7, Nonce: 99, Deadline: 500})
}

func TestProcessRetriesSupersededJobThatStillQualifies(t *testing.T) {
	client := &fakeClient{fn: func(int) (upstream.SubmitResult, error) { return upstream.SubmitResult{Accepted: true}, nil }}
	s := New(client, logging.NewNop(), metricsink.NewNop())
	// job belongs to round 1, superseded by round 2, but its deadline (50)
	// still qualifies under round 2's target (100): not abandoned.
	s.SetCurrentRound(2, 100)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.process(ctx, Job{RoundID: 1, AccountID: 7, Nonce: 99, Deadline: 50})

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, 1, client.calls, "a superseded job whose deadline still qualifies must still be submitted")
}
