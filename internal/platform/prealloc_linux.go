//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves disk space for the destination. Errors are ignored
// because fallocate is not supported on all filesystems.
func preallocate(fd *os.File, size int64) {
	if size <= 0 {
		return
	}
	_ = unix.Fallocate(int(fd.Fd()), 0, 0, size)
}
