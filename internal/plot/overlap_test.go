package plot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimOverlapsNoOverlap(t *testing.T) {
	files := []*File{
		{AccountID: 1, Start: 0, Nonces: 1000},
		{AccountID: 1, Start: 1000, Nonces: 1000},
	}
	var warnings []string
	kept := trimOverlaps(files, func(msg string) { warnings = append(warnings, msg) })

	assert.Len(t, kept, 2)
	assert.Empty(t, warnings)
	assert.Equal(t, uint64(0), kept[0].EffectiveStart)
	assert.Equal(t, uint64(1000), kept[0].EffectiveNonces)
	assert.Equal(t, uint64(1000), kept[1].EffectiveStart)
	assert.Equal(t, uint64(1000), kept[1].EffectiveNonces)
}

func TestTrimOverlapsPartial(t *testing.T) {
	// A=(0,1000) covers [0,1000); B=(500,1000) covers [500,1500) and
	// overlaps A's tail. B's effective range is shrunk to keep its
	// original end, moving only the start forward, so no nonce beyond
	// what B physically stores on disk is ever read.
	a := &File{AccountID: 1, Start: 0, Nonces: 1000}
	b := &File{AccountID: 1, Start: 500, Nonces: 1000}
	var warnings []string
	kept := trimOverlaps([]*File{b, a}, func(msg string) { warnings = append(warnings, msg) })

	if assert.Len(t, kept, 2) {
		assert.Equal(t, uint64(0), kept[0].EffectiveStart)
		assert.Equal(t, uint64(1000), kept[0].EffectiveNonces)
		assert.Equal(t, uint64(1000), kept[1].EffectiveStart)
		assert.Equal(t, uint64(500), kept[1].EffectiveNonces)
	}
	assert.Len(t, warnings, 1)
}

func TestTrimOverlapsFullyCovered(t *testing.T) {
	a := &File{AccountID: 1, Start: 0, Nonces: 2000}
	b := &File{AccountID: 1, Start: 500, Nonces: 100}
	kept := trimOverlaps([]*File{a, b}, func(string) {})

	assert.Len(t, kept, 1)
	assert.Equal(t, uint64(0), kept[0].Start)
}
