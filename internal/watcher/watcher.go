// Package watcher reloads the configuration file when it changes and hands
// the parsed result to the run loop through a mailbox.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/recpush/internal/config"
	"github.com/raoulx24/recpush/internal/fsprobe"
	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/mailbox"
)

const (
	defaultDebounce  = 200 * time.Millisecond
	defaultStability = 50 * time.Millisecond
)

// Watcher observes one config file.
type Watcher struct {
	mu sync.RWMutex

	path      string
	interval  time.Duration
	mode      string
	debounce  time.Duration
	stability time.Duration

	log logging.Logger

	lastModTime time.Time
	lastSize    int64

	mb *mailbox.Mailbox[config.Config]
}

// New creates a watcher for the config file at path.
func New(path string, cfg config.ReloadConfig, log logging.Logger, mb *mailbox.Mailbox[config.Config]) *Watcher {
	w := &Watcher{
		path:      path,
		interval:  cfg.PollInterval,
		mode:      cfg.Method,
		debounce:  defaultDebounce,
		stability: defaultStability,
		log:       log,
		mb:        mb,
	}
	w.lastModTime, w.lastSize = w.fileState()
	return w
}

// Start chooses the watching strategy and blocks until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.RLock()
	mode := w.mode
	dir := filepath.Dir(w.path)
	w.mu.RUnlock()

	switch mode {
	case "fsnotify":
		return w.StartFsNotify(ctx)

	case "poll":
		w.StartPolling(ctx)
		return nil

	case "auto", "":
		res := fsprobe.Probe(dir)
		if res.FsnotifySupported {
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("fsnotify disabled, polling config", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown config reload method %q", mode)
	}
}
