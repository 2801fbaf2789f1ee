package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fastcp/fastcp/internal/event"
	"github.com/fastcp/fastcp/internal/pathutil"
)

// CopyTree replicates the directory rooted at spec.Source under spec.Dest.
// The destination must not already exist unless spec.AllowExistingDest is
// set; that check happens once, at the root, never for subdirectories.
func (e *Engine) CopyTree(ctx context.Context, spec Spec) Outcome {
	const op = "copytree"

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
	if !srcInfo.IsDir() {
		return e.fail(op, src, KindWrongKind,
			fmt.Errorf("source is not a directory"))
	}

	if dstInfo, err := os.Stat(dst); err == nil {
		if !dstInfo.IsDir() {
			return e.fail(op, dst, KindDestinationConflict,
				fmt.Errorf("destination exists and is not a directory"))
		}
		if !spec.AllowExistingDest {
			return e.fail(op, dst, KindDestinationExists,
				fmt.Errorf("destination directory already exists"))
		}
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return e.fail(op, dst, KindIO, err)
	}
	e.stats.AddDirsCreated(1)
	event.Emit(e.events, event.Event{Type: event.DirCreated, Path: dst})

	var copied int64
	if err := e.copyEntries(ctx, src, dst, spec.MaxDepth, spec, &copied); err != nil {
		return Outcome{Err: err, BytesCopied: copied}
	}

	if _, err := os.Stat(dst); err != nil {
		return Outcome{
			Err:         &Error{Op: op, Path: dst, Kind: KindVerificationFailed, Err: err},
			BytesCopied: copied,
		}
	}
	e.log.Debug("tree copied", "src", src, "dst", dst, "bytes", copied)
	return Outcome{BytesCopied: copied}
}

// copyEntries copies the entries of srcDir into dstDir, recursing while
// depth permits. depth 0 processes nothing; depth 1 copies direct files and
// skips subdirectories; negative depth is unlimited.
func (e *Engine) copyEntries(ctx context.Context, srcDir, dstDir string, depth int, spec Spec, copied *int64) error {
	const op = "copytree"

	if depth == 0 {
		return nil
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return &Error{Op: op, Path: srcDir, Kind: KindIO, Err: err}
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return &Error{Op: op, Path: srcDir, Kind: KindIO, Err: err}
		}

		srcPath := filepath.Join(srcDir, entry.Name())
		dstPath := filepath.Join(dstDir, entry.Name())

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if !spec.FollowSymlinks {
				e.skipEntry(srcPath, "symlink")
				continue
			}
			target, err := os.Stat(srcPath)
			if err != nil {
				if os.IsNotExist(err) {
					if spec.IgnoreDanglingSymlinks {
						e.skipEntry(srcPath, "dangling symlink")
						continue
					}
					return &Error{Op: op, Path: srcPath, Kind: KindDanglingSymlink, Err: err}
				}
				return &Error{Op: op, Path: srcPath, Kind: KindIO, Err: err}
			}
			isDir = target.IsDir()
		}

		if isDir {
			if depth == 1 {
				e.skipEntry(srcPath, "beyond depth limit")
				continue
			}
			if err := os.MkdirAll(dstPath, 0o755); err != nil {
				return &Error{Op: op, Path: dstPath, Kind: KindIO, Err: err}
			}
			e.stats.AddDirsCreated(1)
			event.Emit(e.events, event.Event{Type: event.DirCreated, Path: dstPath})

			childDepth := depth
			if depth > 0 {
				childDepth = depth - 1
			}
			if err := e.copyEntries(ctx, srcPath, dstPath, childDepth, spec, copied); err != nil {
				return err
			}
			continue
		}

		if err := e.copyEntry(srcPath, dstPath, spec, copied); err != nil {
			return err
		}
	}
	return nil
}

// copyEntry copies one non-directory tree entry. Classified failures
// propagate unchanged; anything else becomes a partial-copy error naming
// the entry that broke the walk.
func (e *Engine) copyEntry(srcPath, dstPath string, spec Spec, copied *int64) error {
	const op = "copytree"

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return &Error{Op: op, Path: srcPath, Kind: KindPartialCopy, Err: err}
	}
	written, err := e.copyRegular(srcPath, dstPath, srcInfo, spec.PreserveMetadata)
	if err != nil {
		e.stats.AddFilesFailed(1)
		event.Emit(e.events, event.Event{Type: event.FileFailed, Path: srcPath, Error: err})
		if _, ok := KindOf(err); ok {
			return err
		}
		return &Error{Op: op, Path: srcPath, Kind: KindPartialCopy, Err: err}
	}
	if err := e.verifyCopy(op, srcPath, dstPath, srcInfo.Size()); err != nil {
		e.stats.AddFilesFailed(1)
		event.Emit(e.events, event.Event{Type: event.FileFailed, Path: srcPath, Error: err})
		return err
	}

	*copied += written
	e.stats.AddFilesCopied(1)
	e.stats.AddBytesCopied(written)
	event.Emit(e.events, event.Event{Type: event.FileCopied, Path: dstPath, Size: written})
	return nil
}

func (e *Engine) skipEntry(path, reason string) {
	e.stats.AddFilesSkipped(1)
	event.Emit(e.events, event.Event{Type: event.FileSkipped, Path: path})
	e.log.Debug("entry skipped", "path", path, "reason", reason)
}
