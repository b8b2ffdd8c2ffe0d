// Package watch rebuilds when wave sources under the input directory change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"audiopack/internal/item"
	"audiopack/internal/logging"
)

// DefaultDebounce is used when no debounce is configured.
const DefaultDebounce = 750 * time.Millisecond

// RebuildFunc runs one build. changed lists the paths that triggered it and
// is empty for the initial build.
type RebuildFunc func(ctx context.Context, changed []string) error

// Watcher coalesces filesystem events into rebuilds.
type Watcher struct {
	InputDir string
	Debounce time.Duration
	Logger   *slog.Logger
	Rebuild  RebuildFunc
}

// Run builds once, then rebuilds after every burst of relevant events until
// ctx is cancelled. Rebuild errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Rebuild == nil {
		return errors.New("watch: rebuild function is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	dirs, err := Dirs(w.InputDir)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	logger := logging.NewComponentLogger(w.Logger, "watch")
	logger.Info("watching sources",
		logging.String("input_dir", w.InputDir),
		logging.Int("directories", len(dirs)),
		logging.String("debounce", logging.FormatDuration(w.debounce())),
	)

	w.rebuild(ctx, logger, nil)
	return w.loop(ctx, logger, fsw.Events, fsw.Errors, fsw.Add)
}

func (w *Watcher) debounce() time.Duration {
	if w.Debounce > 0 {
		return w.Debounce
	}
	return DefaultDebounce
}

func (w *Watcher) loop(ctx context.Context, logger *slog.Logger, events <-chan fsnotify.Event, errs <-chan error, add func(string) error) error {
	pending := map[string]struct{}{}
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
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && isVisibleDir(ev.Name) {
				// New package or language directory.
				if err := add(ev.Name); err != nil {
					logger.Warn("failed to watch new directory", logging.String(logging.FieldPath, ev.Name), logging.Error(err))
				}
			}
			if !Relevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce())
			} else {
				timer.Reset(w.debounce())
			}
			fire = timer.C
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", logging.Error(err))
		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			slices.Sort(changed)
			w.rebuild(ctx, logger, changed)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context, logger *slog.Logger, changed []string) {
	if len(changed) > 0 {
		logger.Info("sources changed, rebuilding", logging.Int("changed", len(changed)))
		logger.Debug("changed paths", logging.Any("paths", changed))
	}
	if err := w.Rebuild(ctx, changed); err != nil && !errors.Is(err, context.Canceled) {
		logging.WarnWithContext(logger, "rebuild failed", "watch_rebuild_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "artifacts stay at the previous build until the next change"),
		)
	}
}

// Relevant reports whether ev may change the build: a visible wave file, or
// a directory appearing or disappearing. Hidden names cover the temporary
// files remediation writes.
func Relevant(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if item.IsSourceName(base) {
		return true
	}
	if filepath.Ext(base) != "" {
		return false
	}
	return !ev.Has(fsnotify.Write)
}

func isVisibleDir(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Dirs returns root and every visible directory below it.
func Dirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return dirs, nil
}
