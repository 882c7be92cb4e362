package diskhealth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordSuccessResetsConsecutiveFailures(t *testing.T) {
	c := &Counters{}
	c.RecordFailure()
	c.RecordFailure()
	c.RecordSuccess()
	c.RecordFailure()
	c.RecordFailure()

	snap := c.Snapshot()
	assert.Equal(t, uint64(1), snap.Successes)
	assert.Equal(t, uint64(4), snap.Failures)
	assert.False(t, snap.Degraded, "two consecutive failures after a reset must not mark degraded")
}

func TestDegradedAfterThreeConsecutiveFailures(t *testing.T) {
	c := &Counters{}
	c.RecordFailure()
	c.RecordFailure()
	assert.False(t, c.Snapshot().Degraded)
	c.RecordFailure()
	assert.True(t, c.Snapshot().Degraded)
}

func TestRegistryReturnsSameCountersForSameDrive(t *testing.T) {
	r := NewRegistry()
	a := r.Drive("disk-1")
	b := r.Drive("disk-1")
	assert.Same(t, a, b)

	c := r.Drive("disk-2")
	assert.NotSame(t, a, c)

	a.RecordFailure()
	snap := r.Snapshot()
	assert.Equal(t, uint64(1), snap["disk-1"].Failures)
	assert.Equal(t, uint64(0), snap["disk-2"].Failures)
}
