// Package ioutil implements the sector-aligned, optionally direct-I/O file
// reads the Reader component needs, plus best-effort CPU affinity pinning
// for hashing threads.
package ioutil

import (
	"fmt"
	"os"
)

// SectorRead reads `chunks` sectors of `sectorSize` bytes starting at the
// sector containing `offset`, into dst (which must be at least
// chunks*sectorSize bytes, sector-aligned when direct I/O is active).
// It returns the intra-sector prefix (offset - alignedOffset) and the
// number of bytes actually read.
func SectorRead(f *os.File, offset int64, chunks, sectorSize int, dst []byte) (prefix int, n int, err error) {
	aligned := (offset / int64(sectorSize)) * int64(sectorSize)
	prefix = int(offset - aligned)
	want := chunks * sectorSize
	if len(dst) < want {
		return 0, 0, fmt.Errorf("ioutil: dst too small: have %d want %d", len(dst), want)
	}
	n, err = f.ReadAt(dst[:want], aligned)
	// A short read (common at end-of-file / last chunk of a plot) is not
	// itself an error; the caller derives nonce_count from n - prefix.
	if err != nil && n == 0 {
		return prefix, 0, err
	}
	return prefix, n, nil
}

// Open opens path for reading, using direct I/O flags when directIO is
// true and the platform supports it; callers must still pass
// sector-aligned offsets/lengths to SectorRead even when directIO is
// false, to keep both code paths behaviorally identical.
func Open(path string, directIO bool) (*os.File, error) {
	if directIO {
		if f, err := openDirect(path); err == nil {
			return f, nil
		}
		// direct-I/O open failed (e.g. unsupported filesystem): fall back
		// to a buffered open rather than failing the whole plot.
	}
	return os.Open(path)
}
