// Package stats tracks copy-operation counters.
package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector accumulates counters across one or more copy operations using
// lock-free atomics, so a parallel batch executor could share it.
type Collector struct {
	filesCopied  atomic.Int64
	filesFailed  atomic.Int64
	filesSkipped atomic.Int64
	bytesCopied  atomic.Int64
	dirsCreated  atomic.Int64
	startTime    time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) AddFilesCopied(n int64)  { c.filesCopied.Add(n) }
func (c *Collector) AddFilesFailed(n int64)  { c.filesFailed.Add(n) }
func (c *Collector) AddFilesSkipped(n int64) { c.filesSkipped.Add(n) }
func (c *Collector) AddBytesCopied(n int64)  { c.bytesCopied.Add(n) }
func (c *Collector) AddDirsCreated(n int64)  { c.dirsCreated.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesCopied  int64
	FilesFailed  int64
	FilesSkipped int64
	BytesCopied  int64
	DirsCreated  int64
	Elapsed      time.Duration
}

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesCopied:  c.filesCopied.Load(),
		FilesFailed:  c.filesFailed.Load(),
		FilesSkipped: c.filesSkipped.Load(),
		BytesCopied:  c.bytesCopied.Load(),
		DirsCreated:  c.dirsCreated.Load(),
		Elapsed:      time.Since(c.startTime),
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"copied=%d failed=%d skipped=%d dirs=%d bytes=%s elapsed=%s",
		s.FilesCopied, s.FilesFailed, s.FilesSkipped, s.DirsCreated,
		FormatBytes(s.BytesCopied), s.Elapsed.Round(time.Millisecond),
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
