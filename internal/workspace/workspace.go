// Package workspace resolves the project root and enumerates the candidate
// source files beneath it. The engine consumes only the results: a resolved
// root path and a list of absolute file paths.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/KamilGolis/Apex-Indexer-LS/internal/config"
)

// ResolveRoot walks parent directories of startPath looking for one of the
// marker files. It returns the marker directory and found=true, or startPath
// itself and found=false when no marker exists anywhere up the tree — the
// caller decides whether that deserves a warning. The error is non-nil only
// when startPath is unusable.
func ResolveRoot(startPath string, markers []string) (root string, found bool, err error) {
	abs, err := filepath.Abs(startPath)
	if err != nil {
		return "", false, fmt.Errorf("resolve path %q: %w", startPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", false, fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	dir := abs
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, true, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding a marker.
			return abs, false, nil
		}
		dir = parent
	}
}

// RelPath returns abs relative to root, slash-separated. Paths outside the
// root are an error: the index only ever stores root-relative files.
func RelPath(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("relativize %s against %s: %w", abs, root, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside the project root %s", abs, root)
	}
	return rel, nil
}

// EnumerateFiles walks root and returns the absolute paths of all recognized
// source files, in walk order. Hidden directories and the configured exclude
// list are skipped, and .gitignore/.forceignore patterns at the root are
// honored. A walk failure aborts the whole enumeration: the caller must not
// rebuild from a half-listed file set.
func EnumerateFiles(root string, cfg config.Config) ([]string, error) {
	excluded := make(map[string]bool, len(cfg.ExcludeDirs))
	for _, d := range cfg.ExcludeDirs {
		excluded[d] = true
	}
	ign := loadIgnorePatterns(root)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (excluded[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !cfg.IsSourceFile(path) {
			return nil
		}
		if ign != nil {
			if rel, err := RelPath(root, path); err == nil && ign.MatchesPath(rel) {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

// loadIgnorePatterns compiles the root's .gitignore and .forceignore, if any.
// Returns nil when neither file contributes a pattern.
func loadIgnorePatterns(root string) *ignore.GitIgnore {
	var patterns []string
	for _, name := range []string{".gitignore", ".forceignore"} {
		content, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimRight(line, "\r")
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			patterns = append(patterns, line)
		}
	}
	if len(patterns) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(patterns...)
}
