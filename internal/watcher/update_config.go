package watcher

import "github.com/raoulx24/recpush/internal/config"

// UpdateConfig applies reload settings from a freshly loaded config. A new
// method or poll interval takes effect the next time Start runs.
func (w *Watcher) UpdateConfig(cfg config.ReloadConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if cfg.Method != w.mode || cfg.PollInterval != w.interval {
		w.log.Info("config reload settings changed; restart to apply", "method", cfg.Method, "pollInterval", cfg.PollInterval)
	}
	w.mode = cfg.Method
	w.interval = cfg.PollInterval
}
