//go:build darwin

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// Copy tries clonefile for a CoW whole-file copy, then falls back to
// read/write on macOS. Clonefile needs a nonexistent destination, which is
// why the platform layer creates DstPath itself.
func Copy(req Request) (Result, error) {
	err := unix.Clonefile(req.SrcPath, req.DstPath, 0)
	if err == nil {
		return Result{BytesWritten: req.SrcSize, Method: Clonefile}, nil
	}
	if !isFallbackCloneErr(err) {
		return Result{}, err
	}

	dst, err := createDst(req)
	if err != nil {
		return Result{}, err
	}
	defer dst.Close()

	preallocate(dst, req.SrcSize)
	return copyReadWrite(req, dst)
}

func isFallbackCloneErr(err error) bool {
	switch err {
	case unix.ENOTSUP, unix.EXDEV, unix.EACCES:
		return true
	}
	if e, ok := err.(*os.PathError); ok {
		return isFallbackCloneErr(e.Err)
	}
	return false
}
