//go:build !linux && !windows

package ioutil

import (
	"errors"
	"os"
)

// openDirect has no portable equivalent on other platforms; callers fall
// back to a buffered open.
func openDirect(path string) (*os.File, error) {
	return nil, errUnsupported
}

var errUnsupported = errors.New("ioutil: direct I/O not supported on this platform")
