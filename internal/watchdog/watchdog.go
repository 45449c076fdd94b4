// Package watchdog resets the process when the run loop stops feeding it.
package watchdog

import (
	"sync"
	"time"

	"github.com/raoulx24/recpush/internal/config"
	"github.com/raoulx24/recpush/internal/logging"
)

// Feeder is petted by long-running phases to show they are still making progress.
type Feeder interface {
	Feed()
}

// Nop ignores every feed.
type Nop struct{}

func (Nop) Feed() {}

// Software is a two-stage watchdog: a warning is logged when no feed arrives
// within the warning timeout, and onExpire runs after the reset timeout.
type Software struct {
	mu       sync.Mutex
	warning  time.Duration
	reset    time.Duration
	warnT    *time.Timer
	resetT   *time.Timer
	onExpire func()
	log      logging.Logger
	stopped  bool
}

// New returns a running Software watchdog, or Nop when disabled.
func New(cfg config.WatchdogConfig, log logging.Logger, onExpire func()) Feeder {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewSoftware(cfg.Warning, cfg.Reset, log, onExpire)
}

func NewSoftware(warning, reset time.Duration, log logging.Logger, onExpire func()) *Software {
	w := &Software{
		warning:  warning,
		reset:    reset,
		onExpire: onExpire,
		log:      log,
	}
	w.warnT = time.AfterFunc(warning, w.warn)
	w.resetT = time.AfterFunc(reset, w.expire)
	return w
}

func (w *Software) warn() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if !stopped {
		w.log.Warn("watchdog warning timeout exceeded", "warning", w.warning, "reset", w.reset)
	}
}

func (w *Software) expire() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()

	w.log.Error("watchdog reset timeout exceeded", "reset", w.reset)
	if w.onExpire != nil {
		w.onExpire()
	}
}

func (w *Software) Feed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.warnT.Reset(w.warning)
	w.resetT.Reset(w.reset)
}

// Stop disarms the watchdog. Feeds after Stop are ignored.
func (w *Software) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.warnT.Stop()
	w.resetT.Stop()
}
