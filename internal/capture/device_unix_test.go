//go:build unix

package capture

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceQueue_RingOverrun(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "pcm")
	data := append(append(append(block(4, 1), block(4, 2)...), block(4, 3)...), 9, 9)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	q := NewDeviceQueue(path, 4, 2)
	require.NoError(t, q.Begin())

	assert.Equal(t, 2, q.Available())
	assert.Equal(t, uint64(1), q.Dropped(), "oldest block dropped")
	assert.Equal(t, block(4, 2), bytes.Clone(q.ReadBuffer()))
	q.FreeBuffer()
	assert.Equal(t, block(4, 3), bytes.Clone(q.ReadBuffer()))
	q.FreeBuffer()
	assert.Zero(t, q.Available(), "partial tail is not a block")

	q.End()
	q.Clear()
	assert.NoError(t, q.Err())
}

func TestDeviceQueue_MissingDevice(t *testing.T) {
	t.Parallel()
	q := NewDeviceQueue(filepath.Join(t.TempDir(), "absent"), 4, 2)
	var devErr *DeviceError
	require.ErrorAs(t, q.Begin(), &devErr)
	assert.Zero(t, q.Available())
}
