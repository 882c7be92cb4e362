// Package plot implements the Plot Registry: discovery, filename parsing,
// per-file validation, drive grouping and nonce-range overlap trimming.
package plot

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ScoopCount is the fixed number of scoops per plot file.
const ScoopCount = 4096

// ScoopSize is the byte size of one scoop for one nonce.
const ScoopSize = 64

// NonceGranularity is the implementation's internal granularity: a plot's
// nonce count must be divisible by this for the file to be accepted.
// Signum-family plotters always produce multiples of it.
const NonceGranularity = 1

// File describes one validated, on-disk plot file.
type File struct {
	Path      string
	AccountID uint64
	Start     uint64 // start_nonce
	Nonces    uint64 // declared nonce count from the filename

	// EffectiveStart/EffectiveNonces describe the range actually hashed
	// after overlap trimming; initialized equal to Start/Nonces.
	EffectiveStart  uint64
	EffectiveNonces uint64

	DriveID  string
	SectorSize int
	DirectIOEligible bool
}

// ExpectedSize returns the file size a plot with Nonces nonces must have.
func ExpectedSize(nonces uint64) int64 {
	return int64(nonces) * ScoopCount * ScoopSize
}

// ScoopOffset returns the byte offset and length of scoop `scoop` within a
// plot file of `nonces` nonces.
func ScoopOffset(scoop int, nonces uint64) (offset int64, length int64) {
	offset = int64(scoop)*int64(nonces)*ScoopSize
	length = int64(nonces) * ScoopSize
	return
}

// ParseFilename parses the `<account_id>_<start_nonce>_<nonces>` pattern.
// It is the inverse of (File).Filename: round-tripping a valid name
// through ParseFilename then Filename must yield the same string.
func ParseFilename(name string) (accountID, start, nonces uint64, err error) {
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("plot: %q does not match <account>_<start>_<nonces>", name)
	}
	accountID, err = strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("plot: %q: bad account id: %w", name, err)
	}
	start, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("plot: %q: bad start nonce: %w", name, err)
	}
	nonces, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("plot: %q: bad nonce count: %w", name, err)
	}
	return accountID, start, nonces, nil
}

// Filename renders a File back to its canonical on-disk name.
func (f File) Filename() string {
	return fmt.Sprintf("%d_%d_%d", f.AccountID, f.Start, f.Nonces)
}

// loadCandidate opens and validates a single filesystem entry as a plot
// file. Files failing the name pattern, size check, or granularity check
// are rejected with an error; the caller logs and skips them.
func loadCandidate(dir string, info os.FileInfo) (File, error) {
	accountID, start, nonces, err := ParseFilename(info.Name())
	if err != nil {
		return File{}, err
	}
	if nonces == 0 || nonces%NonceGranularity != 0 {
		return File{}, fmt.Errorf("plot: %q: nonce count %d not divisible by granularity %d", info.Name(), nonces, NonceGranularity)
	}
	want := ExpectedSize(nonces)
	if info.Size() != want {
		return File{}, fmt.Errorf("plot: %q: size %d does not match expected %d for %d nonces", info.Name(), info.Size(), want, nonces)
	}
	return File{
		Path:            dir + string(os.PathSeparator) + info.Name(),
		AccountID:       accountID,
		Start:           start,
		Nonces:          nonces,
		EffectiveStart:  start,
		EffectiveNonces: nonces,
	}, nil
}
