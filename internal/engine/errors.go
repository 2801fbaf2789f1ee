package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a copy failure. The kind, not the message, is the contract
// callers branch on.
type Kind int

const (
	// KindIO is the catch-all for filesystem failures that have no more
	// specific classification. It still carries the operation and path.
	KindIO Kind = iota

	// KindPath means the path could not be normalized or resolved.
	KindPath

	// KindNotFound means the source does not exist.
	KindNotFound

	// KindWrongKind means a file was found where a directory was expected,
	// or the other way around.
	KindWrongKind

	// KindDestinationConflict means the tree-copy destination exists and is
	// not a directory.
	KindDestinationConflict

	// KindDestinationExists means the tree-copy destination directory exists
	// and the spec did not allow that.
	KindDestinationExists

	// KindDanglingSymlink means a followed symlink points at a missing target
	// and the spec did not ignore dangling links.
	KindDanglingSymlink

	// KindPartialCopy means a tree copy aborted mid-way; Path identifies the
	// failing entry and the wrapped error the underlying cause.
	KindPartialCopy

	// KindVerificationFailed means the destination was missing or did not
	// match the source after the underlying copy reported success.
	KindVerificationFailed

	// KindRemoteTransfer means the transfer engine was unreachable or
	// reported a nonzero status.
	KindRemoteTransfer
)

var kindNames = [...]string{
	KindIO:                  "io",
	KindPath:                "path",
	KindNotFound:            "not_found",
	KindWrongKind:           "wrong_kind",
	KindDestinationConflict: "destination_conflict",
	KindDestinationExists:   "destination_exists",
	KindDanglingSymlink:     "dangling_symlink",
	KindPartialCopy:         "partial_copy",
	KindVerificationFailed:  "verification_failed",
	KindRemoteTransfer:      "remote_transfer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Error is a classified copy failure. Op names the top-level operation that
// produced it and Path the offending filesystem path.
type Error struct {
	Err  error
	Op   string
	Path string
	Kind Kind
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the outermost *Error in err's chain, or
// (KindIO, false) when err carries no classification.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return KindIO, false
}
