package apexindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KamilGolis/Apex-Indexer-LS/internal/config"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/extract"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/index"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/symbol"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/workspace"
)

// Lifecycle errors. Neither is fatal: a rejected rebuild can be retried, and
// an uninitialized engine answers every query with empty results.
var (
	// ErrNotInitialized is returned by mutating operations before Initialize
	// has resolved a project root.
	ErrNotInitialized = errors.New("apexindex: project root not resolved")

	// ErrRebuildInProgress is returned when a full rebuild is requested
	// while one is already running. Requests are rejected, not queued.
	ErrRebuildInProgress = errors.New("apexindex: rebuild already in progress")
)

// Engine owns the symbol index and sequences its lifecycle: root resolution,
// the initial full rebuild, save-triggered single-file updates, and lookups.
// One Engine serves one session; construct it explicitly and share the
// instance — there is no global state.
type Engine struct {
	cfg         config.Config
	cfgExplicit bool
	extractor   extract.Extractor
	store       *index.Index
	logger      *slog.Logger
	progress    ProgressFunc

	// root is written exactly once, during Initialize, and read-only after.
	root string

	// rebuilding is the re-entrancy guard for full rebuilds.
	rebuilding atomic.Bool

	// notReadyOnce limits the root-unresolved warning to once per session.
	notReadyOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtractor replaces the default tree-sitter Apex extractor.
func WithExtractor(x extract.Extractor) Option {
	return func(e *Engine) {
		e.extractor = x
	}
}

// WithConfig fixes the discovery settings, suppressing the settings-file
// lookup Initialize would otherwise perform at the resolved root.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
		e.cfgExplicit = true
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithProgress registers a callback for rebuild progress events. The callback
// runs on the indexing goroutine and must not block.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// New creates an Engine with an empty index. The index is populated by
// Initialize; until then every lookup returns empty results.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:    config.Default(),
		store:  index.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.extractor == nil {
		e.extractor = extract.NewApexExtractor()
	}
	return e
}

// Initialize resolves the project root for startPath, loads the root's
// settings file unless WithConfig fixed one, and performs the initial full
// rebuild. When root resolution fails the engine stays disabled for the
// session — every later operation is a logged no-op — and the error is
// returned for the caller to report.
func (e *Engine) Initialize(ctx context.Context, startPath string) error {
	root, found, err := workspace.ResolveRoot(startPath, e.cfg.RootMarkers)
	if err != nil {
		e.logger.Error("project root resolution failed; indexing disabled",
			"path", startPath, "error", err)
		return fmt.Errorf("resolve project root: %w", err)
	}
	if !found {
		e.logger.Warn("no project marker found; using start path as root", "root", root)
	}

	if !e.cfgExplicit {
		cfg, err := config.Load(root)
		if err != nil {
			e.logger.Warn("settings file unusable; keeping defaults", "error", err)
		}
		e.cfg = cfg
	}

	e.root = root
	e.logger.Info("workspace initialized", "root", root)
	return e.RebuildAll(ctx)
}

// Root returns the resolved project root, or "" before initialization.
func (e *Engine) Root() string {
	return e.root
}

// Config returns the discovery settings in effect.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// RebuildAll clears the index and repopulates it from a fresh file
// enumeration. At most one rebuild runs at a time; a request arriving while
// one is in progress returns ErrRebuildInProgress. An enumeration failure
// aborts before the clear, leaving the previous index intact. Individual
// file failures are logged and skipped.
func (e *Engine) RebuildAll(ctx context.Context) error {
	if !e.ready() {
		return ErrNotInitialized
	}
	if !e.rebuilding.CompareAndSwap(false, true) {
		e.logger.Warn("rebuild requested while one is running; rejected")
		return ErrRebuildInProgress
	}
	defer e.rebuilding.Store(false)

	start := time.Now()
	files, err := workspace.EnumerateFiles(e.root, e.cfg)
	if err != nil {
		// Abort before the clear: no partial index from a half-listed file
		// set, and the previous contents stay queryable.
		return fmt.Errorf("enumerate source files: %w", err)
	}

	token := fmt.Sprintf("apex-index-%d", start.UnixNano())
	e.emit(Progress{Token: token, Phase: ProgressBegin, Message: "Indexing Apex workspace"})

	e.store.Clear()
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			// Never leave a half-built index behind: a cancelled rebuild
			// ends fully cleared, with the cancellation surfaced.
			e.store.Clear()
			e.emit(Progress{Token: token, Phase: ProgressEnd, Message: "Indexing cancelled"})
			return fmt.Errorf("rebuild cancelled: %w", err)
		}
		if err := e.IndexFile(ctx, path); err != nil {
			e.logger.Warn("skipping file", "path", path, "error", err)
		}
		e.emit(Progress{
			Token:      token,
			Phase:      ProgressReport,
			Message:    fmt.Sprintf("%d/%d files", i+1, len(files)),
			Percentage: (i + 1) * 100 / len(files),
		})
	}

	stats := e.store.Stats()
	e.emit(Progress{
		Token:   token,
		Phase:   ProgressEnd,
		Message: fmt.Sprintf("Indexed %d files", stats.Files),
	})
	e.logger.Info("full rebuild complete",
		"files", stats.Files,
		"definitions", stats.Definitions,
		"references", stats.References,
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// IndexFile replaces a single file's contribution to the index. The file's
// stale entries are removed and the fresh extraction inserted as one step, so
// lookups never observe the gap between them. An extraction failure is
// contained: the stale entries are still removed, the failure is logged, and
// nil is returned — one bad file never aborts a batch.
func (e *Engine) IndexFile(ctx context.Context, absPath string) error {
	if !e.ready() {
		return ErrNotInitialized
	}
	rel, err := workspace.RelPath(e.root, absPath)
	if err != nil {
		return fmt.Errorf("relativize %s: %w", absPath, err)
	}

	syms, err := e.extractor.Extract(ctx, absPath, e.root)
	if err != nil {
		e.store.RemoveFile(rel)
		e.logger.Warn("extraction failed; file dropped from index", "file", rel, "error", err)
		return nil
	}
	e.store.ReplaceFile(rel, syms.Definitions, syms.References)
	return nil
}

// HandleFileSave reindexes path if it lies under the project root and carries
// a recognized source suffix; anything else is silently ignored. Save updates
// run outside the rebuild guard — the store's own locking keeps them safe
// against concurrent lookups.
func (e *Engine) HandleFileSave(ctx context.Context, path string) error {
	if !e.ready() {
		return ErrNotInitialized
	}
	if !e.cfg.IsSourceFile(path) {
		return nil
	}
	if _, err := workspace.RelPath(e.root, path); err != nil {
		return nil // outside the project root
	}
	return e.IndexFile(ctx, path)
}

// FindDefinitions returns the locations where name is defined, in the order
// they were indexed. Exact, case-sensitive name match only; unknown names and
// an uninitialized engine both yield an empty result.
func (e *Engine) FindDefinitions(name string) []symbol.Location {
	defs := e.Definitions(name)
	out := make([]symbol.Location, len(defs))
	for i, d := range defs {
		out[i] = d.Location
	}
	return out
}

// FindReferences returns the locations where name is referenced, in the
// order they were indexed.
func (e *Engine) FindReferences(name string) []symbol.Location {
	refs := e.References(name)
	out := make([]symbol.Location, len(refs))
	for i, r := range refs {
		out[i] = r.Location
	}
	return out
}

// Definitions is FindDefinitions with the full records: name and kind
// included.
func (e *Engine) Definitions(name string) []symbol.Definition {
	if !e.ready() {
		return nil
	}
	return e.store.Definitions(name)
}

// References is FindReferences with the full records.
func (e *Engine) References(name string) []symbol.Reference {
	if !e.ready() {
		return nil
	}
	return e.store.References(name)
}

// SearchDefinitions returns all definitions whose name contains query,
// case-insensitive, grouped by name in lexical order.
func (e *Engine) SearchDefinitions(query string) []symbol.Definition {
	if !e.ready() {
		return nil
	}
	return e.store.DefinitionsMatching(query)
}

// IndexedFiles returns the sorted relative paths currently in the index.
func (e *Engine) IndexedFiles() []string {
	if !e.ready() {
		return nil
	}
	return e.store.Files()
}

// Stats summarizes the index contents.
func (e *Engine) Stats() index.Stats {
	return e.store.Stats()
}

// ready reports whether a project root has been resolved, logging the
// disabled state once per session.
func (e *Engine) ready() bool {
	if e.root != "" {
		return true
	}
	e.notReadyOnce.Do(func() {
		e.logger.Warn("engine not initialized; operations are no-ops")
	})
	return false
}

func (e *Engine) emit(p Progress) {
	if e.progress != nil {
		e.progress(p)
	}
}
