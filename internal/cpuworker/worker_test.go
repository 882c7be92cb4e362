package cpuworker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danhill2020/signum-miner/internal/bufferpool"
	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/shabal"
)

func TestCandidateDeadlineSaturatesOnZeroBaseTarget(t *testing.T) {
	c := Candidate{DeadlineRaw: 12345, BaseTarget: 0}
	assert.Equal(t, ^uint64(0), c.Deadline())
}

func TestWorkerEmitsBestOfBuffer(t *testing.T) {
	nonceCount := 4
	bufSize := nonceCount * shabal.ScoopBytes
	var gensig [32]byte

	pool := bufferpool.New(1, bufSize, 1)
	done := make(chan struct{})

	buf, ok := pool.AcquireEmpty(done)
	require.True(t, ok)

	variant := pickVariant(t)
	results := make([]uint64, nonceCount)
	variant.HashScoops(gensig, buf.Data, nonceCount, results)

	minIdx := 0
	for i, r := range results {
		if r < results[minIdx] {
			minIdx = i
		}
	}

	buf.Meta = bufferpool.Meta{
		AccountID:  7,
		StartNonce: 100,
		NonceCount: uint64(nonceCount),
		Height:     50,
		BaseTarget: 2,
		GenSig:     gensig,
	}
	buf.Acquire(1)
	pool.PublishFilled(buf)

	w := New(0, "drive-a", pool, variant, logging.NewNop(), false, 0)

	var got Candidate
	emitted := 0
	go func() {
		w.Run(done, func(c Candidate) {
			got = c
			emitted++
			close(done)
		})
	}()
	<-done

	require.Equal(t, 1, emitted)
	assert.Equal(t, uint64(100+minIdx), got.Nonce)
	assert.Equal(t, uint64(7), got.AccountID)
	assert.Equal(t, "drive-a", got.DriveID)
	assert.Equal(t, results[minIdx], got.DeadlineRaw)
}

func TestWorkerEmitsSentinelForEmptyFinishedBuffer(t *testing.T) {
	pool := bufferpool.New(1, 64, 1)
	done := make(chan struct{})

	buf, ok := pool.AcquireEmpty(done)
	require.True(t, ok)
	buf.Meta = bufferpool.Meta{NonceCount: 0, FinishedFlag: true, Height: 9}
	buf.Acquire(1)
	pool.PublishFilled(buf)

	w := New(0, "drive-b", pool, pickVariant(t), logging.NewNop(), false, 0)

	var got Candidate
	go func() {
		w.Run(done, func(c Candidate) {
			got = c
			close(done)
		})
	}()
	<-done

	assert.True(t, got.Sentinel)
	assert.True(t, got.FinishedFlag)
	assert.Equal(t, "drive-b", got.DriveID)
}

func pickVariant(t *testing.T) shabal.Variant {
	t.Helper()
	return shabal.Select()
}
