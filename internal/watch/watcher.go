// Package watch regenerates output when the configuration or library sources
// change. Events are debounced and runs never overlap.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/refdocs/internal/logfields"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// RunFunc performs one regeneration. Its error is logged and watching goes on.
type RunFunc func(ctx context.Context) error

// Watcher monitors a set of files and source trees.
type Watcher struct {
	files    map[string]struct{}
	roots    []string
	debounce time.Duration
	interval time.Duration
	run      RunFunc
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period between the last event and a run.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithInterval additionally regenerates every d, whether or not anything
// changed. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New returns a Watcher that calls run when one of files changes or a Go
// source file anywhere below roots is written, created, renamed or removed.
func New(files, roots []string, run RunFunc, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		files:    make(map[string]struct{}, len(files)),
		debounce: DefaultDebounce,
		run:      run,
		logger:   slog.Default(),
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
	}
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", r, err)
		}
		w.roots = append(w.roots, abs)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run performs an initial regeneration, then blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := w.register(fw); err != nil {
		return err
	}

	requests := make(chan string, 1)
	if w.interval > 0 {
		sched, err := w.schedule(requests)
		if err != nil {
			return err
		}
		defer func() { _ = sched.Shutdown() }()
	}
	w.logger.Info("Watching for changes",
		slog.Int("files", len(w.files)),
		slog.Int("roots", len(w.roots)),
		slog.Duration("debounce", w.debounce),
		slog.Duration("interval", w.interval))

	w.trigger(ctx, "initial")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	reason := ""

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && w.underRoot(event.Name) {
				_ = w.addTree(fw, event.Name)
			}
			if !w.Relevant(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			w.logger.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			reason = event.Name
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		case <-timer.C:
			w.trigger(ctx, reason)
		case why := <-requests:
			w.trigger(ctx, why)
		}
	}
}

// Relevant reports whether a change to path should cause a regeneration.
func (w *Watcher) Relevant(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if _, ok := w.files[abs]; ok {
		return true
	}
	return filepath.Ext(abs) == ".go" && !strings.HasSuffix(abs, "_test.go") && w.underRoot(abs)
}

func (w *Watcher) trigger(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	w.logger.Info("Regenerating", slog.String("reason", reason))
	if err := w.run(ctx); err != nil {
		w.logger.Error("Regeneration failed", logfields.Error(err))
	}
}

// register watches the parent directory of every file, which survives
// editors that replace files by rename, and every directory below roots.
func (w *Watcher) register(fw *fsnotify.Watcher) error {
	dirs := map[string]struct{}{}
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}
	for _, r := range w.roots {
		if err := w.addTree(fw, r); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			w.logger.Warn("Cannot watch directory", logfields.Directory(p), logfields.Error(err))
		}
		return nil
	})
}

func (w *Watcher) underRoot(path string) bool {
	for _, r := range w.roots {
		rel, err := filepath.Rel(r, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func ignoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" || name == "vendor"
}
