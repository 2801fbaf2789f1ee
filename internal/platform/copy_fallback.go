//go:build !linux && !darwin && !windows

package platform

// Copy falls back to read/write on platforms without a kernel offload path.
func Copy(req Request) (Result, error) {
	dst, err := createDst(req)
	if err != nil {
		return Result{}, err
	}
	defer dst.Close()

	preallocate(dst, req.SrcSize)
	return copyReadWrite(req, dst)
}
