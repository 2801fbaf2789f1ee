// Package engine implements local copy operations: single files, directory
// trees, and batches of either. Every operation takes a Spec and returns an
// Outcome whose error, when non-nil, is a classified *Error.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/fastcp/fastcp/internal/event"
	"github.com/fastcp/fastcp/internal/pathutil"
	"github.com/fastcp/fastcp/internal/platform"
	"github.com/fastcp/fastcp/internal/stats"
)

// Options configures an Engine. The zero value is usable.
type Options struct {
	// Logger receives per-file debug lines. Nil means slog.Default().
	Logger *slog.Logger

	// Stats receives counter updates. Nil allocates a private collector.
	Stats *stats.Collector

	// Events, when non-nil, receives progress notifications. Sends never
	// block; a full channel drops events.
	Events chan<- event.Event

	// Verify re-reads both files after each copy and compares BLAKE3 digests.
	Verify bool
}

// Engine executes copy specs against the local filesystem.
type Engine struct {
	log    *slog.Logger
	stats  *stats.Collector
	events chan<- event.Event
	verify bool
}

// New creates an Engine from opts.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	st := opts.Stats
	if st == nil {
		st = stats.NewCollector()
	}
	return &Engine{
		log:    log,
		stats:  st,
		events: opts.Events,
		verify: opts.Verify,
	}
}

// Stats returns the engine's collector.
func (e *Engine) Stats() *stats.Collector { return e.stats }

// CopyFile copies a single regular file. Directories are rejected; use
// CopyTree. When the destination names an existing directory, the file is
// copied into it under the source's base name.
func (e *Engine) CopyFile(ctx context.Context, spec Spec) Outcome {
	const op = "copyfile"

	src, err := pathutil.Resolve(spec.Source)
	if err != nil {
		return e.fail(op, spec.Source, KindPath, err)
	}
	dst, err := pathutil.Resolve(spec.Dest)
	if err != nil {
		return e.fail(op, spec.Dest, KindPath, err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return e.fail(op, src, KindNotFound, err)
		}
		return e.fail(op, src, KindIO, err)
	}
	if srcInfo.IsDir() {
		return e.fail(op, src, KindWrongKind,
			fmt.Errorf("source is a directory"))
	}

	if dstInfo, err := os.Stat(dst); err == nil && dstInfo.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return e.fail(op, dst, KindIO, err)
	}

	if err := ctx.Err(); err != nil {
		return e.fail(op, src, KindIO, err)
	}

	written, err := e.copyRegular(src, dst, srcInfo, spec.PreserveMetadata)
	if err != nil {
		return e.fail(op, src, KindIO, err)
	}

	if err := e.verifyCopy(op, src, dst, srcInfo.Size()); err != nil {
		e.stats.AddFilesFailed(1)
		event.Emit(e.events, event.Event{Type: event.FileFailed, Path: src, Error: err})
		return Outcome{Err: err}
	}

	e.stats.AddFilesCopied(1)
	e.stats.AddBytesCopied(written)
	event.Emit(e.events, event.Event{Type: event.FileCopied, Path: dst, Size: written})
	e.log.Debug("file copied", "src", src, "dst", dst, "bytes", written)
	return Outcome{BytesCopied: written}
}

// copyRegular writes src's content to a temp file next to dst, applies
// permissions (and timestamps when preserveMeta is set), then renames the
// temp file over dst. A failed copy never leaves a partial dst behind.
func (e *Engine) copyRegular(src, dst string, srcInfo os.FileInfo, preserveMeta bool) (int64, error) {
	tmp := filepath.Join(filepath.Dir(dst),
		fmt.Sprintf(".%s.%s.fastcp-tmp", filepath.Base(dst), uuid.NewString()[:8]))

	registerTmp(tmp)
	defer deregisterTmp(tmp)

	result, err := platform.Copy(platform.Request{
		DstPath: tmp,
		SrcPath: src,
		SrcSize: srcInfo.Size(),
		Perm:    0o600,
	})
	if err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("copy data: %w", err)
	}

	if err := os.Chmod(tmp, srcInfo.Mode().Perm()); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("chmod: %w", err)
	}
	if preserveMeta {
		if err := copyTimes(tmp, srcInfo); err != nil {
			os.Remove(tmp)
			return 0, err
		}
	} else if result.Method == platform.Clonefile {
		// clonefile carries the source times over; without preservation the
		// destination should look freshly written
		_ = os.Chtimes(tmp, time.Time{}, time.Now())
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("rename into place: %w", err)
	}
	return result.BytesWritten, nil
}

// verifyCopy checks that dst exists and, when verification is enabled,
// that its BLAKE3 digest matches src's.
func (e *Engine) verifyCopy(op, src, dst string, srcSize int64) error {
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return &Error{Op: op, Path: dst, Kind: KindVerificationFailed, Err: err}
	}
	if dstInfo.Size() != srcSize {
		return &Error{Op: op, Path: dst, Kind: KindVerificationFailed,
			Err: fmt.Errorf("size mismatch: source %d bytes, destination %d", srcSize, dstInfo.Size())}
	}
	if !e.verify {
		return nil
	}

	srcSum, err := hashFile(src)
	if err != nil {
		return &Error{Op: op, Path: src, Kind: KindVerificationFailed, Err: err}
	}
	dstSum, err := hashFile(dst)
	if err != nil {
		return &Error{Op: op, Path: dst, Kind: KindVerificationFailed, Err: err}
	}
	if !bytes.Equal(srcSum, dstSum) {
		return &Error{Op: op, Path: dst, Kind: KindVerificationFailed,
			Err: fmt.Errorf("digest mismatch")}
	}
	return nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// fail records a failure in stats and events, then returns the classified
// outcome.
func (e *Engine) fail(op, path string, kind Kind, err error) Outcome {
	cerr := &Error{Op: op, Path: path, Kind: kind, Err: err}
	e.stats.AddFilesFailed(1)
	event.Emit(e.events, event.Event{Type: event.FileFailed, Path: path, Error: cerr})
	e.log.Debug("operation failed", "op", op, "path", path, "kind", kind.String(), "err", err)
	return Outcome{Err: cerr}
}
