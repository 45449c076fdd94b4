package watcher

import (
	"os"
	"time"

	"github.com/raoulx24/recpush/internal/config"
)

func (w *Watcher) fileState() (time.Time, int64) {
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}, -1
	}
	return info.ModTime(), info.Size()
}

// detect reloads the config if the file changed since the last load.
func (w *Watcher) detect() {
	mod, size := w.fileState()

	w.mu.RLock()
	changed := mod.After(w.lastModTime) || size != w.lastSize
	w.mu.RUnlock()

	if !changed || size < 0 {
		return
	}
	if !w.isStable(size) {
		// still being written; the next event or tick picks it up
		return
	}
	w.load(mod, size)
}

// Reload loads the config unconditionally, as on SIGHUP.
func (w *Watcher) Reload() {
	mod, size := w.fileState()
	w.load(mod, size)
}

func (w *Watcher) load(mod time.Time, size int64) {
	cfg, err := config.Load(w.path)

	w.mu.Lock()
	w.lastModTime = mod
	w.lastSize = size
	w.mu.Unlock()

	if err != nil {
		w.log.Error("config reload failed, keeping current config", "path", w.path, "error", err)
		return
	}

	w.UpdateConfig(cfg.ConfigReload)
	w.mb.Put(*cfg)
	w.log.Info("config reloaded", "path", w.path)
}
