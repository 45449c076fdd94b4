package storage

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOS_FileLifecycle(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	fs, err := New(root)
	require.NoError(t, err)

	assert.False(t, fs.Exists("/rec0"))
	require.NoError(t, fs.Mkdir("/rec0"))
	assert.True(t, fs.Exists("/rec0"))
	assert.DirExists(t, filepath.Join(root, "rec0"))

	f, err := fs.Open("/rec0/chan0.raw", ModeWrite)
	require.NoError(t, err)
	_, err = f.Write([]byte("pcm"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := ReadFile(fs, "/rec0/chan0.raw")
	require.NoError(t, err)
	assert.Equal(t, []byte("pcm"), data)

	var ioErr *IOError
	require.ErrorAs(t, fs.Rmdir("/rec0"), &ioErr, "directory not empty")
	assert.Equal(t, "rmdir", ioErr.Op)

	require.NoError(t, fs.Remove("/rec0/chan0.raw"))
	require.NoError(t, fs.Rmdir("/rec0"))
	assert.False(t, fs.Exists("/rec0"))
}

func TestOS_OpenWriteTruncates(t *testing.T) {
	t.Parallel()
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, WriteFile(context.Background(), fs, "/next_recording", []byte("12345\n")))
	require.NoError(t, WriteFile(context.Background(), fs, "/next_recording", []byte("7\n")))

	data, err := ReadFile(fs, "/next_recording")
	require.NoError(t, err)
	assert.Equal(t, "7\n", string(data))
}

func TestOS_ResolveStaysUnderRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	fs, err := New(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "etc"), fs.resolve("/../../etc"))
	assert.Equal(t, filepath.Join(root, "rec1", "chan0.raw"), fs.resolve("rec1/chan0.raw"))
}

func TestOS_Errors(t *testing.T) {
	t.Parallel()
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Open("/missing", ModeRead)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.ErrorAs(t, fs.Remove("/missing"), &ioErr)
	require.NoError(t, fs.Mkdir("/rec0"))
	require.ErrorAs(t, fs.Mkdir("/rec0"), &ioErr)
	assert.ErrorIs(t, ioErr, os.ErrExist)

	_, err = fs.Open("/x", Mode(9))
	require.Error(t, err)
}

func TestOS_ReadDir(t *testing.T) {
	t.Parallel()
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.Mkdir("/rec3"))
	for _, name := range []string{"/rec3/chan1.raw", "/rec3/chan0.raw", "/rec3/notes.txt"} {
		require.NoError(t, WriteFile(context.Background(), fs, name, []byte("x")))
	}

	names, err := fs.ReadDir("/rec3")
	require.NoError(t, err)
	assert.Equal(t, []string{"chan0.raw", "chan1.raw", "notes.txt"}, names)

	_, err = fs.ReadDir("/rec4")
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "readdir", ioErr.Op)
}

func TestOS_FreeSpace(t *testing.T) {
	t.Parallel()
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	assert.NotZero(t, fs.SectorsPerCluster())
	free, err := FreeBlocks(fs)
	if err != nil {
		t.Skipf("free space query unavailable: %v", err)
	}
	assert.NotZero(t, free)
}

func TestWriteFile_PermanentError(t *testing.T) {
	t.Parallel()
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	err = WriteFile(context.Background(), fs, "/nodir/file", []byte("x"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
}

func TestIsTransient(t *testing.T) {
	t.Parallel()
	assert.True(t, isTransient(&IOError{Op: "write", Err: syscall.EBUSY}))
	assert.True(t, isTransient(syscall.EAGAIN))
	assert.False(t, isTransient(os.ErrNotExist))
}
