// Package extract turns one source file's text into the definition and
// reference records the index consumes. The engine depends only on the
// Extractor interface; the concrete implementation parses Apex with
// tree-sitter.
package extract

import (
	"context"

	"github.com/KamilGolis/Apex-Indexer-LS/internal/symbol"
)

// FileSymbols is the output contract of extraction for a single file. All
// locations are relative to the project root, and no reference's range
// coincides with a definition's range in the same file — that filtering
// happens here, not in the engine.
type FileSymbols struct {
	// Path is the file's slash-separated project-relative path.
	Path string

	Definitions []symbol.Definition
	References  []symbol.Reference
}

// Extractor produces the symbols found in a single file. Implementations
// report read and parse failures through the error return; the engine
// isolates such failures per file.
type Extractor interface {
	Extract(ctx context.Context, absPath, projectRoot string) (*FileSymbols, error)
}
