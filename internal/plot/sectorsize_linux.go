//go:build linux

package plot

import (
	"os"

	"golang.org/x/sys/unix"
)

// probeSectorSize queries the logical sector size of the block device
// backing device via the BLKSSZGET ioctl. ok is false on any failure
// (not a block device, permission denied, ioctl unsupported), in which
// case the caller falls back to DefaultSectorSize.
func probeSectorSize(device string) (int, bool) {
	if device == "" {
		return 0, false
	}
	f, err := os.Open(device)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	sz, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil || sz <= 0 {
		return 0, false
	}
	return sz, true
}
