package slot

import (
	"context"
	"fmt"

	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/storage"
)

// Reclaimer frees the oldest slot on storage and returns its id.
// It returns ErrResourceExhausted when there is nothing left to free.
type Reclaimer interface {
	ReclaimOldest(ctx context.Context) (uint64, error)
}

type Allocator struct {
	fs       storage.FS
	layout   Layout
	counters *Counters
	reclaim  Reclaimer
	rollover bool
	required uint64
	log      logging.Logger
}

// NewAllocator returns an allocator that keeps required sectors free before
// creating a slot. A nil reclaimer behaves as rollover disabled.
func NewAllocator(fs storage.FS, layout Layout, counters *Counters, reclaim Reclaimer, rollover bool, required uint64, log logging.Logger) *Allocator {
	return &Allocator{
		fs:       fs,
		layout:   layout,
		counters: counters,
		reclaim:  reclaim,
		rollover: rollover && reclaim != nil,
		required: required,
		log:      log,
	}
}

func (a *Allocator) SetRollover(on bool) { a.rollover = on && a.reclaim != nil }

// Generate makes room for one recording, creates the first unused slot
// directory at or after the next counter and advances the counter past it.
func (a *Allocator) Generate(ctx context.Context) (Slot, error) {
	if err := a.ensureSpace(ctx); err != nil {
		return Slot{}, err
	}

	id := a.counters.Next()
	for {
		dir, err := a.layout.Dir(id)
		if err != nil {
			return Slot{}, err
		}
		if !a.fs.Exists(dir) {
			break
		}
		a.log.Debug("slot exists, skipping", "path", dir)
		id++
	}

	// format everything before touching storage
	s, err := a.layout.Slot(id)
	if err != nil {
		return Slot{}, err
	}

	if err := a.fs.Mkdir(s.Dir); err != nil {
		return Slot{}, err
	}
	if err := a.counters.SetNext(ctx, id+1); err != nil {
		return Slot{}, err
	}

	a.log.Info("slot allocated", "id", id, "path", s.Dir)
	return s, nil
}

func (a *Allocator) ensureSpace(ctx context.Context) error {
	// every pass either frees a slot or advances first, so this ends
	for {
		free, err := storage.FreeBlocks(a.fs)
		if err != nil {
			return err
		}
		if free >= a.required {
			return nil
		}

		if !a.rollover {
			return fmt.Errorf("%w: %d blocks free, %d required, rollover disabled", ErrResourceExhausted, free, a.required)
		}

		a.log.Warn("low space, reclaiming oldest slot", "free", free, "required", a.required)
		if _, err := a.reclaim.ReclaimOldest(ctx); err != nil {
			return err
		}
	}
}
