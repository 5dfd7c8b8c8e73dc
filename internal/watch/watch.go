// Package watch feeds filesystem events into the index. It exists for the
// standalone watch mode; editor sessions report saves over the protocol
// instead.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KamilGolis/Apex-Indexer-LS/internal/config"
)

// Reindexer receives the save notifications the watcher produces. The engine
// is the real implementation; it filters out paths it does not care about.
type Reindexer interface {
	HandleFileSave(ctx context.Context, path string) error
}

// DefaultDebounce batches the event bursts editors and sfdx deploys produce
// for a single save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher translates recursive filesystem events under a project root into
// per-file reindex calls, debounced per path.
type Watcher struct {
	root     string
	cfg      config.Config
	engine   Reindexer
	logger   *slog.Logger
	debounce time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the per-path settle delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a watcher over root. Directories are watched recursively,
// skipping hidden and excluded ones; directories created later are picked up
// from their create events.
func New(root string, cfg config.Config, engine Reindexer, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		root:     root,
		cfg:      cfg,
		engine:   engine,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		fsw:      fsw,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run consumes events until ctx is cancelled, then closes the watcher. Save
// handling errors are logged, never fatal.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ev.Op.Has(fsnotify.Create) {
		// New directories need their own watches; fsnotify is not recursive.
		if w.isWatchableDir(ev.Name) {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "path", ev.Name, "error", err)
			}
			return
		}
	}
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	if !w.cfg.IsSourceFile(ev.Name) {
		return
	}
	w.schedule(ctx, ev.Name)
}

// schedule arms (or re-arms) the per-path debounce timer. Removes and renames
// flow through the same path: reindexing a vanished file drops it from the
// index.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if err := w.engine.HandleFileSave(ctx, path); err != nil {
			w.logger.Warn("reindex after save failed", "path", path, "error", err)
		}
	})
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && !w.isWatchableDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// isWatchableDir reports whether path is a directory that enumeration would
// descend into.
func (w *Watcher) isWatchableDir(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	for _, d := range w.cfg.ExcludeDirs {
		if name == d {
			return false
		}
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (w *Watcher) close() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("closing watcher", "error", err)
	}
}
