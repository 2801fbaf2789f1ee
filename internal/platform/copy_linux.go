//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// Copy tries the most efficient in-kernel copy available on Linux, falling
// through on unsupported/cross-device errors.
func Copy(req Request) (Result, error) {
	dst, err := createDst(req)
	if err != nil {
		return Result{}, err
	}
	defer dst.Close()

	preallocate(dst, req.SrcSize)

	result, err := copyFileRange(req, dst)
	if err == nil {
		return result, nil
	}
	if !isFallbackErr(err) {
		return result, err
	}

	result, err = copySendfile(req, dst)
	if err == nil {
		return result, nil
	}
	if !isFallbackErr(err) {
		return result, err
	}

	return copyReadWrite(req, dst)
}

func copyFileRange(req Request, dst *os.File) (Result, error) {
	src, err := os.Open(req.SrcPath)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	remaining := req.SrcSize
	var roff, woff int64
	var total int64

	for remaining > 0 {
		n, err := unix.CopyFileRange(int(src.Fd()), &roff, int(dst.Fd()), &woff, int(remaining), 0)
		if err != nil {
			if total == 0 {
				return Result{}, err
			}
			return Result{BytesWritten: total, Method: CopyFileRange}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}

	return Result{BytesWritten: total, Method: CopyFileRange}, nil
}

func copySendfile(req Request, dst *os.File) (Result, error) {
	src, err := os.Open(req.SrcPath)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	remaining := req.SrcSize
	var offset int64
	var total int64

	for remaining > 0 {
		n, err := unix.Sendfile(int(dst.Fd()), int(src.Fd()), &offset, int(remaining))
		if err != nil {
			if total == 0 {
				return Result{}, err
			}
			return Result{BytesWritten: total, Method: Sendfile}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}

	return Result{BytesWritten: total, Method: Sendfile}, nil
}
