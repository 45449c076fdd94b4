package watcher

import (
	"os"
	"time"
)

// isStable reports whether the file size holds still across the stability window.
func (w *Watcher) isStable(size int64) bool {
	w.mu.RLock()
	stability := w.stability
	w.mu.RUnlock()

	time.Sleep(stability)

	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	return info.Size() == size
}
