package engine

// RemoteTarget identifies a transfer-engine server. Its presence on a Spec
// routes the request through the offload adapter instead of the local engine.
type RemoteTarget struct {
	Address          string
	Port             int
	CompressionLevel int
}

// Spec describes one requested copy operation. It is a value: build it,
// hand it to the engine, discard it. Paths are raw — the engine resolves
// them on entry.
type Spec struct {
	Source string
	Dest   string

	// PreserveMetadata copies mode and timestamps along with content.
	PreserveMetadata bool

	// FollowSymlinks materializes symlink targets at the destination during
	// tree copies. When false, symlink entries are skipped.
	FollowSymlinks bool

	// IgnoreDanglingSymlinks suppresses the failure for a followed symlink
	// whose target is missing; the entry is skipped instead.
	IgnoreDanglingSymlinks bool

	// AllowExistingDest permits the tree-copy destination directory to
	// already exist. Checked once, at the root.
	AllowExistingDest bool

	// MaxDepth limits tree recursion: -1 is unlimited, 0 copies no entries,
	// 1 copies direct files but skips subdirectories entirely.
	MaxDepth int

	Remote *RemoteTarget
}

// Outcome is the terminal result of executing one Spec.
type Outcome struct {
	Err         error
	BytesCopied int64

	// Fallback marks an outcome produced by the local engine after a failed
	// remote attempt, so callers can tell accelerated from local completion.
	Fallback bool
}

// OK reports whether the operation succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Op selects which operation a batch applies to every spec.
type Op int

const (
	// OpFileCopy copies file content only.
	OpFileCopy Op = iota
	// OpFileCopyMeta copies file content plus metadata.
	OpFileCopyMeta
	// OpTreeCopy replicates a directory tree.
	OpTreeCopy
)

func (op Op) String() string {
	switch op {
	case OpFileCopy:
		return "copyfile"
	case OpFileCopyMeta:
		return "copyfile_meta"
	case OpTreeCopy:
		return "copytree"
	default:
		return "unknown"
	}
}
