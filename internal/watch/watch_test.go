package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KamilGolis/Apex-Indexer-LS/internal/config"
)

type recordingReindexer struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingReindexer) HandleFileSave(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

func (r *recordingReindexer) seen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.paths {
		if p == path {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, root string, rec *recordingReindexer) {
	t.Helper()
	w, err := New(root, config.Default(), rec, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_ReindexesSavedSourceFile(t *testing.T) {
	root := t.TempDir()
	rec := &recordingReindexer{}
	startWatcher(t, root, rec)

	path := filepath.Join(root, "A.cls")
	require.NoError(t, os.WriteFile(path, []byte("class A {}"), 0o644))

	require.Eventually(t, func() bool { return rec.seen(path) },
		2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresNonSourceFiles(t *testing.T) {
	root := t.TempDir()
	rec := &recordingReindexer{}
	startWatcher(t, root, rec)

	cls := filepath.Join(root, "B.cls")
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(cls, []byte("class B {}"), 0o644))

	// The .cls arrival proves events flowed; the .txt never shows up.
	require.Eventually(t, func() bool { return rec.seen(cls) },
		2*time.Second, 10*time.Millisecond)
	assert.False(t, rec.seen(filepath.Join(root, "notes.txt")))
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()
	rec := &recordingReindexer{}
	startWatcher(t, root, rec)

	sub := filepath.Join(root, "force-app")
	require.NoError(t, os.Mkdir(sub, 0o755))
	path := filepath.Join(sub, "C.cls")

	// The directory watch is added from the create event; give it a moment
	// before writing into it.
	require.Eventually(t, func() bool {
		require.NoError(t, os.WriteFile(path, []byte("class C {}"), 0o644))
		return rec.seen(path)
	}, 2*time.Second, 50*time.Millisecond)
}
