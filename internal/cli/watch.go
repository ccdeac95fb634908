package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/tally/internal/gitctx"
)

// watcher re-runs a review after bursts of filesystem events.
type watcher struct {
	debounce time.Duration
	exclude  []string
	log      *zap.Logger
	run      func(ctx context.Context)
	refresh  func()
}

func (w *watcher) watch(ctx context.Context, root string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	dirs, err := watchDirs(root, w.exclude)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	fmt.Fprintf(os.Stderr, "Watching %s (%d directories). Ctrl-C to stop.\n", root, len(dirs))
	w.run(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(root, ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if sub, err := watchDirs(ev.Name, w.exclude); err == nil {
						for _, d := range sub {
							_ = fw.Add(d)
						}
					}
				}
			}
			w.log.Debug("change", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-hup:
			fmt.Fprintln(os.Stderr, "Refresh requested: clearing cache.")
			w.refresh()
			w.run(ctx)
		case <-timer.C:
			w.run(ctx)
		}
	}
}

// relevant drops events for git internals and excluded paths.
func (w *watcher) relevant(root string, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(root, ev.Name)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	if rel == ".git" || strings.HasPrefix(rel, ".git/") {
		return false
	}
	return !gitctx.MatchesAny(rel, w.exclude)
}

// watchDirs lists root and every directory below it, skipping .git and
// excluded directories.
func watchDirs(root string, exclude []string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && gitctx.MatchesAny(filepath.ToSlash(rel)+"/", exclude) {
				return filepath.SkipDir
			}
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing directories: %w", err)
	}
	return dirs, nil
}
