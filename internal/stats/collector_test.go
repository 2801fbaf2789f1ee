package stats_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastcp/fastcp/internal/stats"
)

func TestCollectorCounters(t *testing.T) {
	c := stats.NewCollector()
	c.AddFilesCopied(2)
	c.AddFilesFailed(1)
	c.AddFilesSkipped(3)
	c.AddBytesCopied(4096)
	c.AddDirsCreated(1)

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.FilesCopied)
	assert.Equal(t, int64(1), snap.FilesFailed)
	assert.Equal(t, int64(3), snap.FilesSkipped)
	assert.Equal(t, int64(4096), snap.BytesCopied)
	assert.Equal(t, int64(1), snap.DirsCreated)
	assert.Positive(t, snap.Elapsed)
}

func TestCollectorConcurrent(t *testing.T) {
	c := stats.NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.AddFilesCopied(1)
				c.AddBytesCopied(10)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(1000), snap.FilesCopied)
	assert.Equal(t, int64(10000), snap.BytesCopied)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", stats.FormatBytes(512))
	assert.Equal(t, "1.0 KiB", stats.FormatBytes(1024))
	assert.Equal(t, "1.5 MiB", stats.FormatBytes(3*512*1024))
	assert.Equal(t, "2.0 GiB", stats.FormatBytes(2*1024*1024*1024))
}

func TestSnapshotString(t *testing.T) {
	c := stats.NewCollector()
	c.AddFilesCopied(5)
	c.AddBytesCopied(2048)

	s := c.Snapshot().String()
	assert.Contains(t, s, "copied=5")
	assert.Contains(t, s, "2.0 KiB")
}
