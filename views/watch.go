package views

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Invalidator is implemented by SharedCompiler and CompilerSet.
type Invalidator interface {
	Invalidate()
}

// DefaultDebounce is the quiet period Watch waits for after a change.
const DefaultDebounce = 100 * time.Millisecond

// Watch invalidates target whenever a file below one of dirs is created,
// written, removed or renamed, until ctx is done.  Bursts of events within
// debounce of each other cause a single invalidation.  It is a development
// aid: the next Get after a change rebuilds the table.
func Watch(ctx context.Context, target Invalidator, dirs []string, debounce time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := addTree(watcher, dir); err != nil {
			return err
		}
	}
	logger.Info("watching views", "dirs", dirs)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	var fire = make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				// new directories must be watched too
				if err := addTree(watcher, ev.Name); err != nil {
					logger.Warn("watch new path", "path", ev.Name, "error", err)
				}
			}
			logger.Debug("view source changed", "event", ev.String())
			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}

		case <-fire:
			target.Invalidate()
			logger.Info("views invalidated")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch views", "error", err)
		}
	}
}

// addTree watches root and, if it is a directory, every directory below it.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
