package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultReloadDelay debounces bursts of file events into one reload.
const DefaultReloadDelay = 500 * time.Millisecond

// Watcher reloads the configuration file when it changes.
type Watcher struct {
	path   string
	delay  time.Duration
	logger zerolog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the file at path.
func NewWatcher(path string, logger zerolog.Logger) *Watcher {
	return &Watcher{
		path:   filepath.Clean(path),
		delay:  DefaultReloadDelay,
		logger: logger.With().Str("component", "config-watcher").Logger(),
	}
}

// SetReloadDelay overrides the debounce delay.
func (w *Watcher) SetReloadDelay(d time.Duration) {
	w.delay = d
}

// Watch starts watching in the background until ctx is done. onReload
// receives each successfully loaded configuration; a file that fails to
// load is logged and skipped.
//
// The parent directory is watched, not the file, so editors that replace
// the file on save are still seen.
func (w *Watcher) Watch(ctx context.Context, onReload func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	go w.processEvents(ctx, watcher, onReload)

	w.logger.Info().Str("path", w.path).Msg("Watching configuration file")
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher, onReload func(*Config)) {
	var reloadTimer *time.Timer
	defer func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Configuration file changed")

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(w.delay, func() {
				cfg, err := Load(w.path)
				if err != nil {
					w.logger.Error().Err(err).Msg("Failed to reload configuration")
					return
				}
				onReload(cfg)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		err := w.watcher.Close()
		w.watcher = nil
		return err
	}
	return nil
}
