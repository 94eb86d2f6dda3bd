package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 150 * time.Millisecond

// Watch reloads the config file whenever it changes and passes the result to
// fn. Invalid configs are logged and skipped. The directory is watched rather
// than the file so editors that replace the file on save are handled.
// Watch returns once the watcher is running; it stops when ctx is done.
func Watch(ctx context.Context, configPath string, logger *log.Logger, fn func(*Config)) error {
	if logger == nil {
		logger = log.Default()
	}

	path := ExpandPath(configPath)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Printf("[config] Watcher error: %v", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != filepath.Clean(path) {
					continue
				}
				if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				cfg, err := Load(path)
				if err != nil {
					logger.Printf("[config] Reload failed: %v", err)
					continue
				}
				if err := cfg.Validate(); err != nil {
					logger.Printf("[config] Reloaded config is invalid, keeping current: %v", err)
					continue
				}
				logger.Printf("[config] Reloaded %s", path)
				fn(cfg)
			}
		}
	}()

	return nil
}
