// Package platform implements the data-plane file copy using the fastest
// primitive the OS offers, degrading gracefully to plain read/write.
package platform

import "os"

// Method identifies which syscall/strategy performed a copy.
type Method int

const (
	ReadWrite     Method = iota
	CopyFileRange        // Linux copy_file_range(2)
	Sendfile             // Linux sendfile(2)
	Clonefile            // macOS clonefile(2)
)

func (m Method) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case Sendfile:
		return "sendfile"
	case Clonefile:
		return "clonefile"
	default:
		return "unknown"
	}
}

// Request describes one whole-file content copy. Copy creates DstPath
// itself (O_EXCL, with Perm) so clone-based strategies can target a path
// that does not exist yet.
type Request struct {
	DstPath string
	SrcPath string
	SrcSize int64
	Perm    os.FileMode
}

// createDst opens the destination for writing. The path must not exist.
func createDst(req Request) (*os.File, error) {
	return os.OpenFile(req.DstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, req.Perm)
}

// Result reports how a copy went.
type Result struct {
	BytesWritten int64
	Method       Method
}
