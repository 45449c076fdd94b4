// Package retention deletes the oldest recording slots when storage runs low
// and reports which slots are still on storage.
package retention

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/slot"
	"github.com/raoulx24/recpush/internal/storage"
)

type Engine struct {
	fs       storage.FS
	layout   slot.Layout
	counters *slot.Counters
	log      logging.Logger
}

func New(fs storage.FS, layout slot.Layout, counters *slot.Counters, log logging.Logger) *Engine {
	return &Engine{
		fs:       fs,
		layout:   layout,
		counters: counters,
		log:      log,
	}
}

// Entry is one slot found on storage.
type Entry struct {
	ID    uint64
	Dir   string
	Files int
	Bytes int64
}

// ReclaimOldest deletes the oldest slot in [first, next) that still exists
// and advances first past it, even when the slot could not be fully removed.
func (e *Engine) ReclaimOldest(ctx context.Context) (uint64, error) {
	for id := e.counters.First(); id < e.counters.Next(); id++ {
		dir, err := e.layout.Dir(id)
		if err != nil {
			return 0, err
		}
		if !e.fs.Exists(dir) {
			continue
		}

		removed, err := e.removeSlot(dir)
		if err := e.counters.SetFirst(ctx, id+1); err != nil {
			return 0, err
		}

		if err != nil {
			// a slot that cannot be fully removed must not pin first forever
			e.log.Warn("slot only partly reclaimed", "id", id, "path", dir, "files", removed, "error", err)
		} else {
			e.log.Info("slot reclaimed", "id", id, "path", dir, "files", removed)
		}
		return id, nil
	}

	// nothing on storage below next; catch first up so the next call is cheap
	if e.counters.First() < e.counters.Next() {
		if err := e.counters.SetFirst(ctx, e.counters.Next()); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: no slot left to reclaim", slot.ErrResourceExhausted)
}

// removeSlot deletes every channel file of the layout, then whatever else is
// left in the directory, then the directory itself. It keeps going past
// failures and returns them joined.
func (e *Engine) removeSlot(dir string) (int, error) {
	var errs []error
	n := 0
	for ch := 0; ch < e.layout.Channels; ch++ {
		f, err := e.layout.ChannelFile(dir, ch)
		if err != nil {
			return n, err
		}
		if !e.fs.Exists(f) {
			continue
		}
		if err := e.fs.Remove(f); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}

	rest, err := e.fs.ReadDir(dir)
	if err != nil {
		errs = append(errs, err)
	}
	for _, name := range rest {
		if err := e.fs.Remove(path.Join(dir, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}

	if err := e.fs.Rmdir(dir); err != nil {
		errs = append(errs, err)
	}
	return n, errors.Join(errs...)
}

type sizer interface {
	Size(path string) (int64, error)
}

// Inventory lists the slots in [first, next) that exist, oldest first.
func (e *Engine) Inventory() ([]Entry, error) {
	sz, _ := e.fs.(sizer)

	var out []Entry
	for id := e.counters.First(); id < e.counters.Next(); id++ {
		dir, err := e.layout.Dir(id)
		if err != nil {
			return nil, err
		}
		if !e.fs.Exists(dir) {
			continue
		}

		ent := Entry{ID: id, Dir: dir}
		for ch := 0; ch < e.layout.Channels; ch++ {
			f, err := e.layout.ChannelFile(dir, ch)
			if err != nil {
				return nil, err
			}
			if !e.fs.Exists(f) {
				continue
			}
			ent.Files++
			if sz != nil {
				if n, err := sz.Size(f); err == nil {
					ent.Bytes += n
				}
			}
		}
		out = append(out, ent)
	}
	return out, nil
}
