// Package index holds the in-memory symbol index: two name-keyed stores for
// definitions and references plus the set of indexed files.
//
// All mutation goes through a single mutex. A per-file replace removes the
// file's stale entries and inserts its new ones inside one locked region, so
// a concurrent lookup observes either the file's old contribution or its new
// one — never the window in between.
package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/KamilGolis/Apex-Indexer-LS/internal/symbol"
)

// Index is the name-keyed symbol store. Keys are exact symbol names,
// case-sensitive, no normalization. Within a bucket, entries are unique by
// (file, range start); that pair is the sole deduplication key.
type Index struct {
	mu          sync.RWMutex
	definitions map[string][]symbol.Definition
	references  map[string][]symbol.Reference
	files       map[string]struct{}
}

// Stats summarizes the index contents.
type Stats struct {
	Definitions     int `json:"definitions"`
	References      int `json:"references"`
	DefinitionNames int `json:"definition_names"`
	ReferenceNames  int `json:"reference_names"`
	Files           int `json:"files"`
}

// New returns an empty index.
func New() *Index {
	return &Index{
		definitions: make(map[string][]symbol.Definition),
		references:  make(map[string][]symbol.Reference),
		files:       make(map[string]struct{}),
	}
}

// ReplaceFile swaps rel's contribution to the index: every stored entry whose
// file equals rel is removed from every bucket (buckets that become empty are
// deleted), then the given entries are inserted in input order, and rel is
// recorded as indexed. Insertions that collide on (file, range start) with a
// stored entry for the same name are skipped — defensive dedup against a
// misbehaving extractor.
func (ix *Index) ReplaceFile(rel string, defs []symbol.Definition, refs []symbol.Reference) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	// Stale removal strictly precedes re-insertion: a file that now defines
	// nothing leaves no residue.
	ix.removeFileLocked(rel)

	for _, d := range defs {
		if hasDefinitionAt(ix.definitions[d.Name], d.File, d.Range.Start) {
			continue
		}
		ix.definitions[d.Name] = append(ix.definitions[d.Name], d)
	}
	for _, r := range refs {
		if hasReferenceAt(ix.references[r.Name], r.File, r.Range.Start) {
			continue
		}
		ix.references[r.Name] = append(ix.references[r.Name], r)
	}
	ix.files[rel] = struct{}{}
}

// RemoveFile drops rel's entries from every bucket and unmarks it as indexed.
// Used when extraction fails: the file's old entries are gone and nothing
// replaces them.
func (ix *Index) RemoveFile(rel string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeFileLocked(rel)
}

func (ix *Index) removeFileLocked(rel string) {
	for name, defs := range ix.definitions {
		kept := defs[:0]
		for _, d := range defs {
			if d.File != rel {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			delete(ix.definitions, name)
		} else {
			ix.definitions[name] = kept
		}
	}
	for name, refs := range ix.references {
		kept := refs[:0]
		for _, r := range refs {
			if r.File != rel {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(ix.references, name)
		} else {
			ix.references[name] = kept
		}
	}
	delete(ix.files, rel)
}

// Clear unconditionally resets the index to empty.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.definitions = make(map[string][]symbol.Definition)
	ix.references = make(map[string][]symbol.Reference)
	ix.files = make(map[string]struct{})
}

// Definitions returns the stored definitions for the exact name, in insertion
// order (first-indexed-file-first, extraction order within a file). Unknown
// names yield an empty result. The returned slice is a copy.
func (ix *Index) Definitions(name string) []symbol.Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	defs := ix.definitions[name]
	if len(defs) == 0 {
		return nil
	}
	out := make([]symbol.Definition, len(defs))
	copy(out, defs)
	return out
}

// References returns the stored references for the exact name, in insertion
// order. Unknown names yield an empty result. The returned slice is a copy.
func (ix *Index) References(name string) []symbol.Reference {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	refs := ix.references[name]
	if len(refs) == 0 {
		return nil
	}
	out := make([]symbol.Reference, len(refs))
	copy(out, refs)
	return out
}

// DefinitionsMatching returns all definitions whose name contains query,
// case-insensitive. An empty query matches everything. Results are grouped by
// name in lexical order so output is stable across calls.
func (ix *Index) DefinitionsMatching(query string) []symbol.Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	names := make([]string, 0, len(ix.definitions))
	q := strings.ToLower(query)
	for name := range ix.definitions {
		if q == "" || strings.Contains(strings.ToLower(name), q) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []symbol.Definition
	for _, name := range names {
		out = append(out, ix.definitions[name]...)
	}
	return out
}

// Has reports whether rel is currently marked as indexed.
func (ix *Index) Has(rel string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.files[rel]
	return ok
}

// Files returns a sorted snapshot of the indexed-file set.
func (ix *Index) Files() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.files))
	for f := range ix.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Stats returns entry and bucket counts.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	s := Stats{
		DefinitionNames: len(ix.definitions),
		ReferenceNames:  len(ix.references),
		Files:           len(ix.files),
	}
	for _, defs := range ix.definitions {
		s.Definitions += len(defs)
	}
	for _, refs := range ix.references {
		s.References += len(refs)
	}
	return s
}

func hasDefinitionAt(defs []symbol.Definition, file string, start symbol.Position) bool {
	for _, d := range defs {
		if d.File == file && d.Range.Start == start {
			return true
		}
	}
	return false
}

func hasReferenceAt(refs []symbol.Reference, file string, start symbol.Position) bool {
	for _, r := range refs {
		if r.File == file && r.Range.Start == start {
			return true
		}
	}
	return false
}
