//go:build windows

package platform

import (
	"io"
	"os"
)

// Copy uses buffered read/write. Windows has no userspace-visible offload
// syscall comparable to copy_file_range.
func Copy(req Request) (Result, error) {
	src, err := os.Open(req.SrcPath)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	dst, err := createDst(req)
	if err != nil {
		return Result{}, err
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	return Result{BytesWritten: n, Method: ReadWrite}, err
}
