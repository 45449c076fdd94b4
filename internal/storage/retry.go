package storage

import (
	"context"
	"errors"
	"io"
	"syscall"
	"time"

	"github.com/raoulx24/recpush/internal/retry"
)

// writePolicy mirrors the five-try, 100ms-doubling budget used for file writes.
var writePolicy = retry.Policy{Attempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}

// isTransient reports errors worth retrying. Anything else fails immediately.
func isTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT)
}

// WriteFile replaces the contents of path with data, retrying transient failures.
func WriteFile(ctx context.Context, fs FS, path string, data []byte) error {
	return retry.Do(ctx, "write "+path, writePolicy, func(context.Context, int) error {
		err := writeOnce(fs, path, data)
		if err != nil && !isTransient(err) {
			return retry.Permanent(err)
		}
		return err
	})
}

func writeOnce(fs FS, path string, data []byte) error {
	f, err := fs.Open(path, ModeWrite)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// ReadFile returns the whole contents of path.
func ReadFile(fs FS, path string) ([]byte, error) {
	f, err := fs.Open(path, ModeRead)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}
