package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StartFsNotify triggers detect() when fsnotify reports changes to the config
// file. The parent directory is watched so editors that replace the file by
// rename are still seen.
func (w *Watcher) StartFsNotify(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	w.mu.RLock()
	path := w.path
	debounce := w.debounce
	w.mu.RUnlock()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	name := filepath.Base(path)

	var t *time.Timer
	defer func() {
		if t != nil {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				w.log.Error("fsnotify events channel closed")
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			w.log.Debug("config event", "name", ev.Name, "op", ev.Op)

			if t != nil {
				t.Stop()
			}
			t = time.AfterFunc(debounce, func() {
				defer func() {
					if r := recover(); r != nil {
						w.log.Error("config reload panic", "panic", r)
					}
				}()
				w.detect()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("fsnotify error", "error", err)
		}
	}
}
