package slot

import (
	"context"
	"strconv"
	"strings"

	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/storage"
)

const (
	FirstFile = "/first_recording"
	NextFile  = "/next_recording"
)

// Counters are the oldest slot still on storage and the next slot id to hand
// out. Every change is written through to storage before the setter returns.
type Counters struct {
	fs    storage.FS
	first uint64
	next  uint64
}

// LoadCounters reads both counter files, seeding missing or unreadable ones
// with 0 and repairing first > next.
func LoadCounters(ctx context.Context, fs storage.FS, log logging.Logger) (*Counters, error) {
	c := &Counters{fs: fs}

	var err error
	if c.first, err = loadCounter(ctx, fs, FirstFile, log); err != nil {
		return nil, err
	}
	if c.next, err = loadCounter(ctx, fs, NextFile, log); err != nil {
		return nil, err
	}

	if c.first > c.next {
		log.Warn("counters out of order, advancing next", "first", c.first, "next", c.next)
		if err := c.SetNext(ctx, c.first); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ReadCounters reads both counter files without writing anything. Missing
// or unreadable files read as 0, and first > next is clamped in memory only.
func ReadCounters(fs storage.FS) (*Counters, error) {
	c := &Counters{fs: fs}

	var err error
	if c.first, err = peekCounter(fs, FirstFile); err != nil {
		return nil, err
	}
	if c.next, err = peekCounter(fs, NextFile); err != nil {
		return nil, err
	}
	c.next = max(c.next, c.first)
	return c, nil
}

func peekCounter(fs storage.FS, path string) (uint64, error) {
	if !fs.Exists(path) {
		return 0, nil
	}
	data, err := storage.ReadFile(fs, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, nil
	}
	return v, nil
}

func loadCounter(ctx context.Context, fs storage.FS, path string, log logging.Logger) (uint64, error) {
	if fs.Exists(path) {
		data, err := storage.ReadFile(fs, path)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
		if err == nil {
			return v, nil
		}
		log.Warn("counter file unreadable, reseeding", "path", path, "error", err)
	}

	if err := writeCounter(ctx, fs, path, 0); err != nil {
		return 0, err
	}
	return 0, nil
}

func writeCounter(ctx context.Context, fs storage.FS, path string, v uint64) error {
	return storage.WriteFile(ctx, fs, path, []byte(strconv.FormatUint(v, 10)+"\n"))
}

func (c *Counters) First() uint64 { return c.first }
func (c *Counters) Next() uint64  { return c.next }

func (c *Counters) SetFirst(ctx context.Context, v uint64) error {
	c.first = v
	return writeCounter(ctx, c.fs, FirstFile, v)
}

func (c *Counters) SetNext(ctx context.Context, v uint64) error {
	c.next = v
	return writeCounter(ctx, c.fs, NextFile, v)
}
