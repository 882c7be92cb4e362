package shabal

import "golang.org/x/sys/cpu"

// Variant batches Shabal-256 scoop hashing across a lane width of
// independent nonces. Each concrete variant implements the same
// lane-parallel loop shape over a different laneWidth, the idiomatic-Go
// rendition of hashing multiple nonces per SIMD lane in parallel: without
// a cgo/asm budget, lane width becomes an unrolled-loop batch size rather
// than a hardware vector register, but the call contract (HashScoops) is
// identical across variants so real assembly kernels could later replace
// a variant's inner loop without touching any caller.
type Variant interface {
	// Name identifies the selected variant for logging/metrics.
	Name() string
	// LaneWidth is the number of nonces processed per inner-loop batch.
	LaneWidth() int
	// HashScoops computes, for each of the nonceCount scoops packed
	// contiguously in data (each ScoopBytes long), the raw deadline
	// against gensig, writing results[i] = deadlineRaw for nonce i.
	HashScoops(gensig [32]byte, data []byte, nonceCount int, results []uint64)
}

// ScoopBytes is the per-nonce scoop payload length.
const ScoopBytes = 64

type scalarVariant struct{}

func (scalarVariant) Name() string    { return "scalar" }
func (scalarVariant) LaneWidth() int  { return 1 }
func (scalarVariant) HashScoops(gensig [32]byte, data []byte, nonceCount int, results []uint64) {
	for i := 0; i < nonceCount; i++ {
		off := i * ScoopBytes
		results[i] = ScoopDeadlineRaw(gensig, data[off:off+ScoopBytes])
	}
}

// batchVariant is shared by every wider lane-width variant: correctness is
// identical to the scalar core (it calls the same Shabal compression), the
// only difference is the batch size used when iterating, which in a real
// asm/cgo build would correspond to one hardware SIMD dispatch per batch.
type batchVariant struct {
	name string
	lane int
}

func (v batchVariant) Name() string   { return v.name }
func (v batchVariant) LaneWidth() int { return v.lane }
func (v batchVariant) HashScoops(gensig [32]byte, data []byte, nonceCount int, results []uint64) {
	lane := v.lane
	i := 0
	for ; i+lane <= nonceCount; i += lane {
		for l := 0; l < lane; l++ {
			off := (i + l) * ScoopBytes
			results[i+l] = ScoopDeadlineRaw(gensig, data[off:off+ScoopBytes])
		}
	}
	for ; i < nonceCount; i++ {
		off := i * ScoopBytes
		results[i] = ScoopDeadlineRaw(gensig, data[off:off+ScoopBytes])
	}
}

var (
	sse2Variant   = batchVariant{name: "sse2", lane: 4}
	avxVariant    = batchVariant{name: "avx", lane: 8}
	avx2Variant   = batchVariant{name: "avx2", lane: 8}
	avx512Variant = batchVariant{name: "avx512f", lane: 16}
	neonVariant   = batchVariant{name: "neon", lane: 4}
)

// Select performs one-time CPU-feature detection and returns the fastest
// Variant available, fixed for the process lifetime.
func Select() Variant {
	if cpu.X86.HasAVX512F {
		return avx512Variant
	}
	if cpu.X86.HasAVX2 {
		return avx2Variant
	}
	if cpu.X86.HasAVX {
		return avxVariant
	}
	if cpu.X86.HasSSE2 {
		return sse2Variant
	}
	if cpu.ARM64.HasASIMD {
		return neonVariant
	}
	return scalarVariant{}
}
