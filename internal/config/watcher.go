package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nwestfall/bookforge/internal/log"
)

// defaultDebounce is how long the watcher waits for more writes before
// reporting a change. Editors save in bursts of events.
const defaultDebounce = 250 * time.Millisecond

// Watcher reports changes to the config file so the theme and poll
// settings can be reloaded without restarting.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	dirty   bool
	changes chan struct{}
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		watcher:  fsw,
		changes:  make(chan struct{}, 1),
	}, nil
}

// Changes returns the channel that receives one signal per settled burst
// of config-file writes.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start begins watching. It returns once the watch is registered; events
// are processed on a background goroutine until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	// Watch the directory, not the file: editors replace files on save
	// and a watch on the old inode goes silent.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	log.SafeGo("config.watcher", func() { w.processEvents(ctx) })
	log.Debug(log.CatConfig, "Config watcher started", "path", w.path, "debounce", w.debounce)
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.dirty = true
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatConfig, "Config watcher error", err)

		case <-ticker.C:
			w.mu.Lock()
			dirty := w.dirty
			w.dirty = false
			w.mu.Unlock()
			if !dirty {
				continue
			}
			log.Info(log.CatConfig, "Config file changed", "path", w.path)
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}
