package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.txt")
	content := "# comment\n" +
		"/src/a\t/dst/a\n" +
		"\n" +
		"/src/b\t/dst/b\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	specs, err := readBatchFile(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "/src/a", specs[0].Source)
	assert.Equal(t, "/dst/a", specs[0].Dest)
	assert.Equal(t, "/src/b", specs[1].Source)
	assert.Equal(t, "/dst/b", specs[1].Dest)
}

func TestReadBatchFile_MalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.txt")
	require.NoError(t, os.WriteFile(path, []byte("no-tab-here\n"), 0o644))

	_, err := readBatchFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestReadBatchFile_Missing(t *testing.T) {
	_, err := readBatchFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
