// Package worker runs the record, stop, upload, hold cycle.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/raoulx24/recpush/internal/config"
	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/mailbox"
	"github.com/raoulx24/recpush/internal/slot"
	"github.com/raoulx24/recpush/internal/upload"
	"github.com/raoulx24/recpush/internal/watchdog"
)

// feedEvery bounds how long the loop goes without petting the watchdog.
const feedEvery = time.Second

type Allocator interface {
	Generate(ctx context.Context) (slot.Slot, error)
}

type Recorder interface {
	Start(s slot.Slot) error
	Drain() int
	Stop() error
}

type Uploader interface {
	UploadSlot(ctx context.Context, s slot.Slot) (upload.Report, error)
}

// Worker owns the run loop. Capture and upload never overlap.
type Worker struct {
	mu     sync.RWMutex
	length time.Duration
	poll   time.Duration
	sched  *Scheduler

	alloc  Allocator
	rec    Recorder
	up     Uploader
	feeder watchdog.Feeder
	log    logging.Logger
	mb     *mailbox.Mailbox[config.Config]

	// onReload applies the parts of a new config owned outside the worker.
	onReload func(config.Config)
	now      func() time.Time
}

type Option func(*Worker)

// WithUploader enables uploading each finished slot.
func WithUploader(u Uploader) Option {
	return func(w *Worker) { w.up = u }
}

func WithFeeder(f watchdog.Feeder) Option {
	return func(w *Worker) { w.feeder = f }
}

// WithMailbox makes the worker apply configs put into mb between recordings.
func WithMailbox(mb *mailbox.Mailbox[config.Config]) Option {
	return func(w *Worker) { w.mb = mb }
}

// WithReloadHook is called with each applied config after the worker's own settings.
func WithReloadHook(fn func(config.Config)) Option {
	return func(w *Worker) { w.onReload = fn }
}

func New(cfg config.CaptureConfig, alloc Allocator, rec Recorder, log logging.Logger, opts ...Option) (*Worker, error) {
	sched, err := NewScheduler(cfg)
	if err != nil {
		return nil, err
	}
	w := &Worker{
		length: cfg.Length,
		poll:   cfg.PollInterval,
		sched:  sched,
		alloc:  alloc,
		rec:    rec,
		feeder: watchdog.Nop{},
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.poll <= 0 {
		w.poll = time.Millisecond
	}
	return w, nil
}

// UpdateConfig hot-reloads capture timing. Channel count, source and storage
// layout are fixed for the life of the process.
func (w *Worker) UpdateConfig(cfg config.Config) {
	sched, err := NewScheduler(cfg.Capture)
	if err != nil {
		w.log.Error("config not applied", "error", err)
		return
	}

	w.mu.Lock()
	w.length = cfg.Capture.Length
	if cfg.Capture.PollInterval > 0 {
		w.poll = cfg.Capture.PollInterval
	}
	w.sched = sched
	w.mu.Unlock()

	if w.onReload != nil {
		w.onReload(cfg)
	}
	w.log.Info("config applied", "length", cfg.Capture.Length, "hold", cfg.Capture.Hold, "schedule", cfg.Capture.Schedule)
}

// Run records slots until ctx is done or a fatal error occurs. Running out of
// storage and unformattable slot paths are fatal; everything else skips the
// affected slot or channel and carries on.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started")
	for {
		if err := w.cycle(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			w.log.Info("worker stopped")
			return nil
		}
		if !w.hold(ctx) {
			w.log.Info("worker stopped")
			return nil
		}
	}
}

// cycle records one slot and uploads it.
func (w *Worker) cycle(ctx context.Context) error {
	s, err := w.alloc.Generate(ctx)
	if err != nil {
		if errors.Is(err, slot.ErrResourceExhausted) || errors.Is(err, slot.ErrBufferOverflow) {
			w.log.Error("slot allocation failed", "error", err)
			return err
		}
		w.log.Error("slot skipped", "error", err)
		return nil
	}

	if err := w.rec.Start(s); err != nil {
		w.log.Error("capture start failed", "slot", s.ID, "path", s.Dir, "error", err)
		return nil
	}

	w.capture(ctx)

	if err := w.rec.Stop(); err != nil {
		w.log.Error("capture finished with errors", "slot", s.ID, "path", s.Dir, "error", err)
	}
	if ctx.Err() != nil || w.up == nil {
		return nil
	}

	if _, err := w.up.UploadSlot(ctx, s); err != nil {
		w.log.Warn("slot not uploaded", "slot", s.ID, "path", s.Dir, "error", err)
	}
	return nil
}

// capture drains the recorder until the recording length has elapsed or ctx is done.
func (w *Worker) capture(ctx context.Context) {
	w.mu.RLock()
	length, poll := w.length, w.poll
	w.mu.RUnlock()

	start := w.now()
	deadline := start.Add(length)
	lastFeed := start
	w.feeder.Feed()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		w.rec.Drain()

		now := w.now()
		if now.Sub(lastFeed) >= feedEvery {
			w.feeder.Feed()
			lastFeed = now
		}
		if !now.Before(deadline) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// hold waits for the next start time, applying configs as they arrive.
// It returns false when ctx is done.
func (w *Worker) hold(ctx context.Context) bool {
	finished := w.now()
	w.applyPending()

	var notify <-chan struct{}
	if w.mb != nil {
		notify = w.mb.Notify()
	}

	w.mu.RLock()
	w.log.Debug("holding", "until", w.sched.Next(finished))
	w.mu.RUnlock()

	for {
		w.mu.RLock()
		next := w.sched.Next(finished)
		w.mu.RUnlock()

		wait := next.Sub(w.now())
		if wait <= 0 {
			return true
		}
		w.feeder.Feed()

		timer := time.NewTimer(min(wait, feedEvery))
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		case <-notify:
			timer.Stop()
			w.applyPending()
		}
	}
}

func (w *Worker) applyPending() {
	if w.mb == nil {
		return
	}
	if cfg, ok := w.mb.TryTake(); ok {
		w.UpdateConfig(cfg)
	}
}
