package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KamilGolis/Apex-Indexer-LS/internal/symbol"
)

func def(name, file string, line, col int, kind symbol.Kind) symbol.Definition {
	return symbol.Definition{
		Location: loc(file, line, col, len(name)),
		Name:     name,
		Kind:     kind,
	}
}

func ref(name, file string, line, col int) symbol.Reference {
	return symbol.Reference{
		Location: loc(file, line, col, len(name)),
		Name:     name,
	}
}

func loc(file string, line, col, width int) symbol.Location {
	return symbol.Location{
		File: file,
		Range: symbol.Range{
			Start: symbol.Position{Line: line, Column: col},
			End:   symbol.Position{Line: line, Column: col + width},
		},
	}
}

func TestReplaceFile_PopulatesBuckets(t *testing.T) {
	ix := New()
	ix.ReplaceFile("A.cls",
		[]symbol.Definition{def("Foo", "A.cls", 1, 1, symbol.KindClass)},
		[]symbol.Reference{ref("Bar", "A.cls", 2, 5)},
	)

	defs := ix.Definitions("Foo")
	require.Len(t, defs, 1)
	assert.Equal(t, "A.cls", defs[0].File)
	assert.Equal(t, symbol.Position{Line: 1, Column: 1}, defs[0].Range.Start)
	assert.Equal(t, symbol.Position{Line: 1, Column: 4}, defs[0].Range.End)

	refs := ix.References("Bar")
	require.Len(t, refs, 1)
	assert.Equal(t, symbol.Position{Line: 2, Column: 5}, refs[0].Range.Start)

	assert.True(t, ix.Has("A.cls"))
	assert.Equal(t, []string{"A.cls"}, ix.Files())
}

func TestReplaceFile_NoResidueWhenFileEmpties(t *testing.T) {
	ix := New()
	ix.ReplaceFile("A.cls",
		[]symbol.Definition{def("Foo", "A.cls", 1, 1, symbol.KindClass)},
		[]symbol.Reference{ref("Bar", "A.cls", 2, 5)},
	)

	// Re-save with nothing in it: no entry with file == A.cls may remain.
	ix.ReplaceFile("A.cls", nil, nil)

	assert.Empty(t, ix.Definitions("Foo"))
	assert.Empty(t, ix.References("Bar"))
	assert.True(t, ix.Has("A.cls"))

	s := ix.Stats()
	assert.Zero(t, s.Definitions)
	assert.Zero(t, s.References)
	assert.Zero(t, s.DefinitionNames)
	assert.Zero(t, s.ReferenceNames)
}

func TestReplaceFile_SwapsSymbols(t *testing.T) {
	ix := New()
	ix.ReplaceFile("A.cls",
		[]symbol.Definition{def("Foo", "A.cls", 1, 1, symbol.KindClass)}, nil)

	// Foo removed, Baz added.
	ix.ReplaceFile("A.cls",
		[]symbol.Definition{def("Baz", "A.cls", 1, 1, symbol.KindClass)}, nil)

	assert.Empty(t, ix.Definitions("Foo"))
	require.Len(t, ix.Definitions("Baz"), 1)
}

func TestReplaceFile_LeavesOtherFilesAlone(t *testing.T) {
	ix := New()
	ix.ReplaceFile("A.cls",
		[]symbol.Definition{def("Foo", "A.cls", 1, 1, symbol.KindClass)}, nil)
	ix.ReplaceFile("B.cls",
		[]symbol.Definition{def("Foo", "B.cls", 3, 1, symbol.KindClass)}, nil)

	ix.ReplaceFile("A.cls", nil, nil)

	defs := ix.Definitions("Foo")
	require.Len(t, defs, 1)
	assert.Equal(t, "B.cls", defs[0].File)
}

func TestReplaceFile_DeduplicatesOnFileAndStart(t *testing.T) {
	ix := New()
	d := def("Foo", "A.cls", 1, 1, symbol.KindClass)

	// Same (file, start) twice in one batch: exactly one stored entry.
	ix.ReplaceFile("A.cls", []symbol.Definition{d, d}, nil)
	assert.Len(t, ix.Definitions("Foo"), 1)

	// Different start position is a distinct entry.
	ix.ReplaceFile("A.cls", []symbol.Definition{d, def("Foo", "A.cls", 5, 1, symbol.KindMethod)}, nil)
	assert.Len(t, ix.Definitions("Foo"), 2)
}

func TestLookups_InsertionOrderAndPurity(t *testing.T) {
	ix := New()
	ix.ReplaceFile("A.cls", []symbol.Definition{
		def("Foo", "A.cls", 1, 1, symbol.KindClass),
		def("Foo", "A.cls", 9, 3, symbol.KindMethod),
	}, nil)
	ix.ReplaceFile("B.cls", []symbol.Definition{
		def("Foo", "B.cls", 2, 1, symbol.KindClass),
	}, nil)

	first := ix.Definitions("Foo")
	require.Len(t, first, 3)
	assert.Equal(t, "A.cls", first[0].File)
	assert.Equal(t, "A.cls", first[1].File)
	assert.Equal(t, "B.cls", first[2].File)

	// Repeated calls with no intervening mutation return identical lists.
	second := ix.Definitions("Foo")
	assert.Equal(t, first, second)

	// Mutating the returned copy does not affect the store.
	first[0].Name = "Mangled"
	assert.Equal(t, second, ix.Definitions("Foo"))
}

func TestLookups_UnknownNameIsEmptyNotError(t *testing.T) {
	ix := New()
	assert.Empty(t, ix.Definitions("Nope"))
	assert.Empty(t, ix.References("Nope"))
}

func TestRemoveFile_DropsEntriesAndIndexedMark(t *testing.T) {
	ix := New()
	ix.ReplaceFile("A.cls",
		[]symbol.Definition{def("Foo", "A.cls", 1, 1, symbol.KindClass)},
		[]symbol.Reference{ref("Bar", "A.cls", 2, 5)},
	)

	ix.RemoveFile("A.cls")

	assert.Empty(t, ix.Definitions("Foo"))
	assert.Empty(t, ix.References("Bar"))
	assert.False(t, ix.Has("A.cls"))
	assert.Empty(t, ix.Files())
}

func TestClear_ResetsEverything(t *testing.T) {
	ix := New()
	ix.ReplaceFile("A.cls",
		[]symbol.Definition{def("Foo", "A.cls", 1, 1, symbol.KindClass)},
		[]symbol.Reference{ref("Bar", "A.cls", 2, 5)},
	)

	ix.Clear()

	assert.Empty(t, ix.Definitions("Foo"))
	assert.Empty(t, ix.Files())
	assert.Equal(t, Stats{}, ix.Stats())
}

func TestDefinitionsMatching(t *testing.T) {
	ix := New()
	ix.ReplaceFile("A.cls", []symbol.Definition{
		def("AccountService", "A.cls", 1, 1, symbol.KindClass),
		def("AccountServiceTest", "A.cls", 5, 1, symbol.KindClass),
		def("Billing", "A.cls", 9, 1, symbol.KindClass),
	}, nil)

	all := ix.DefinitionsMatching("")
	assert.Len(t, all, 3)

	hits := ix.DefinitionsMatching("accountservice")
	require.Len(t, hits, 2)
	assert.Equal(t, "AccountService", hits[0].Name)
	assert.Equal(t, "AccountServiceTest", hits[1].Name)

	assert.Empty(t, ix.DefinitionsMatching("zzz"))
}

func TestFiles_SortedSnapshot(t *testing.T) {
	ix := New()
	ix.ReplaceFile("b/B.cls", nil, nil)
	ix.ReplaceFile("a/A.cls", nil, nil)
	assert.Equal(t, []string{"a/A.cls", "b/B.cls"}, ix.Files())
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	ix := New()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			file := fmt.Sprintf("F%d.cls", w)
			for i := 0; i < 50; i++ {
				ix.ReplaceFile(file,
					[]symbol.Definition{def("Shared", file, i+1, 1, symbol.KindClass)}, nil)
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = ix.Definitions("Shared")
				_ = ix.Files()
			}
		}()
	}
	wg.Wait()

	// Each file's last replace left exactly one entry.
	assert.Len(t, ix.Definitions("Shared"), 4)
}
