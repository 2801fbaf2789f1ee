//go:build !linux && !darwin

package engine

import (
	"os"
	"time"
)

func atimeOf(fi os.FileInfo) time.Time {
	return fi.ModTime()
}

func copyTimes(dstPath string, srcInfo os.FileInfo) error {
	return os.Chtimes(dstPath, atimeOf(srcInfo), srcInfo.ModTime())
}
