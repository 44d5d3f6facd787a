package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lukhas-labs/starlift/internal/scanner"
)

// defaultDebounce batches bursts of filesystem events into one refresh.
const defaultDebounce = 2 * time.Second

// Watch blocks, re-running onChange whenever files under the root change and
// the events settle for the debounce window. It returns when ctx is done.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration, onChange func(context.Context) error) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := e.watchTree(watcher, e.root); err != nil {
		return err
	}
	e.logger.Info("watching for changes", "root", e.root, "debounce", debounce)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need their own watches.
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := e.watchTree(watcher, ev.Name); err != nil {
						e.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			e.logger.Debug("filesystem event", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watch error", "error", err)

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.logger.Error("refresh failed", "error", err)
			}
		}
	}
}

// watchTree registers every directory under root, pruning the same
// directories the scanner skips.
func (e *Engine) watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			e.logger.Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && scanner.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
