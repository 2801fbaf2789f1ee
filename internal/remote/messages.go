// Package remote offloads copy operations to a transfer-engine server over
// a small framed TCP protocol, with optional local fallback.
package remote

// ProtocolVersion is bumped only on breaking wire changes.
const ProtocolVersion = 1

// DefaultPort is the transfer engine's default listen port.
const DefaultPort = 31337

// Message type bytes. Handshake uses the 0x0X range, copy traffic 0x1X.
const (
	MsgHello      byte = 0x01
	MsgHelloAck   byte = 0x02
	MsgCopyReq    byte = 0x10
	MsgLogLine    byte = 0x11
	MsgCopyResult byte = 0x12
)

// Copy flag bits. The server applies them independently; Data alone
// transfers content, Attributes adds permissions, Timestamps adds times.
const (
	FlagData       = 1
	FlagAttributes = 2
	FlagTimestamps = 4
)

// Hello opens a session.
type Hello struct {
	Version int `json:"version"`
}

// HelloAck confirms a session.
type HelloAck struct {
	Version int `json:"version"`
}

// CopyRequest asks the server to perform one copy.
type CopyRequest struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`

	// Flags is a bitwise OR of FlagData, FlagAttributes, FlagTimestamps.
	Flags int `json:"flags"`

	// SubdirDepth limits tree recursion; -1 is unlimited and 0 restricts the
	// request to a single file.
	SubdirDepth int `json:"subdir_depth"`

	Compression int `json:"compression"`
	ThreadCount int `json:"thread_count,omitempty"`
	BufferSize  int `json:"buffer_size,omitempty"`

	// ServerRequired forbids the server from degrading to an unaccelerated
	// path on its side.
	ServerRequired bool `json:"server_required,omitempty"`

	// ReplaceSymlinks materializes symlink targets instead of skipping them.
	ReplaceSymlinks bool `json:"replace_symlinks,omitempty"`
}

// LogLine is a server-side progress line forwarded during a copy.
type LogLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// CopyResult terminates a copy exchange. Status zero is success; any other
// value is a server-defined failure code explained by Message.
type CopyResult struct {
	Status      int    `json:"status"`
	BytesCopied int64  `json:"bytes_copied"`
	FilesCopied int64  `json:"files_copied"`
	Message     string `json:"message,omitempty"`
}
