//go:build darwin

package engine

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// atimeOf returns the access time recorded in fi, or the modification
// time when the platform stat is unavailable.
func atimeOf(fi os.FileInfo) time.Time {
	if stat, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Atimespec.Sec, stat.Atimespec.Nsec)
	}
	return fi.ModTime()
}

// copyTimes applies the source's access and modification times to dstPath
// with nanosecond precision.
func copyTimes(dstPath string, srcInfo os.FileInfo) error {
	times := []unix.Timespec{
		unix.NsecToTimespec(atimeOf(srcInfo).UnixNano()),
		unix.NsecToTimespec(srcInfo.ModTime().UnixNano()),
	}
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, dstPath, times, 0); err != nil {
		return fmt.Errorf("utimensat: %w", err)
	}
	return nil
}
