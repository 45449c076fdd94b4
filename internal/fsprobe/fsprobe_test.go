package fsprobe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_NotADirectory(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	res := Probe(file)
	assert.False(t, res.FsnotifySupported)
	assert.Equal(t, "not a directory", res.Reason)
}

func TestProbe_Missing(t *testing.T) {
	t.Parallel()
	res := Probe(filepath.Join(t.TempDir(), "absent"))
	assert.False(t, res.FsnotifySupported)
	assert.Contains(t, res.Reason, "stat failed")
}

func TestProbe_LeavesNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	res := Probe(dir)
	if !res.FsnotifySupported {
		t.Logf("fsnotify unsupported here: %s", res.Reason)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
