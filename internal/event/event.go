// Package event carries progress notifications from the engine to an
// optional consumer (the CLI's verbose output).
package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	FileCopied Type = iota + 1
	FileSkipped
	FileFailed
	DirCreated
	RemoteFallback
)

var typeNames = [...]string{
	FileCopied:     "FileCopied",
	FileSkipped:    "FileSkipped",
	FileFailed:     "FileFailed",
	DirCreated:     "DirCreated",
	RemoteFallback: "RemoteFallback",
}

func (t Type) String() string {
	if int(t) > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a single progress notification.
type Event struct {
	Timestamp time.Time
	Path      string
	Error     error
	Size      int64
	Type      Type
}

// Emit sends e on ch without blocking. A nil or full channel drops the
// event; progress reporting never stalls a copy.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}
