package shabal

import (
	"encoding/binary"

	"github.com/danhill2020/signum-miner/internal/satmath"
)

// ScoopCount mirrors plot.ScoopCount without importing the plot package,
// keeping shabal dependency-free of the rest of the module.
const ScoopCount = 4096

// ScoopNumber derives the round's scoop index from the generation
// signature and height:
//
//	scoop = ((hash(gensig || u64_be(height))[30..32]) as u16) mod 4096
func ScoopNumber(gensig [32]byte, height uint64) int {
	var heightBE [8]byte
	binary.BigEndian.PutUint64(heightBE[:], height)
	digest := Sum256(gensig[:], heightBE[:])
	v := uint16(digest[30])<<8 | uint16(digest[31])
	return int(v) % ScoopCount
}

// Deadline computes deadline_raw.saturating_div(base_target); a
// base_target of zero yields math.MaxUint64 rather than panicking.
func Deadline(deadlineRaw, baseTarget uint64) uint64 {
	return satmath.Div(deadlineRaw, baseTarget)
}

// ScoopDeadlineRaw hashes one nonce's scoop bytes against the generation
// signature, returning the raw (pre-division) deadline: the first 8 bytes
// of hash(gensig || scoopBytes) interpreted little-endian, as PoC+
// specifies.
func ScoopDeadlineRaw(gensig [32]byte, scoopBytes []byte) uint64 {
	digest := Sum256(gensig[:], scoopBytes)
	return binary.LittleEndian.Uint64(digest[:8])
}
