package protocol

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KamilGolis/Apex-Indexer-LS/internal/symbol"
)

// ErrNoProjectRoot is returned when a relative location cannot be resolved
// into a URI because no project root is known.
var ErrNoProjectRoot = errors.New("protocol: project root not resolved")

// FromIndexPosition converts the index's 1-based position to the protocol's
// 0-based one. Exact, lossless, and inverted by ToIndexPosition.
func FromIndexPosition(p symbol.Position) Position {
	return Position{Line: p.Line - 1, Character: p.Column - 1}
}

// ToIndexPosition converts a protocol position to the index's 1-based
// addressing.
func ToIndexPosition(p Position) symbol.Position {
	return symbol.Position{Line: p.Line + 1, Column: p.Character + 1}
}

// FromIndexRange converts both endpoints of an index range.
func FromIndexRange(r symbol.Range) Range {
	return Range{Start: FromIndexPosition(r.Start), End: FromIndexPosition(r.End)}
}

// FromIndexLocation resolves loc's root-relative path against the project
// root and returns a protocol location addressed by file URI. Fails with
// ErrNoProjectRoot when root is empty.
func FromIndexLocation(root string, loc symbol.Location) (Location, error) {
	uri, err := FileURI(root, loc.File)
	if err != nil {
		return Location{}, err
	}
	return Location{URI: uri, Range: FromIndexRange(loc.Range)}, nil
}

// FileURI joins a root-relative path onto the project root and formats the
// result as a file URI. Separators are normalized to forward slashes, and
// drive-letter absolute paths get the extra authority slash URIs require:
// C:\p\A.cls becomes file:///C:/p/A.cls.
func FileURI(root, rel string) (string, error) {
	if root == "" {
		return "", ErrNoProjectRoot
	}
	abs := filepath.Join(root, filepath.FromSlash(rel))
	normalized := strings.ReplaceAll(abs, `\`, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return "file://" + normalized, nil
}

// PathFromURI converts a file URI back into a filesystem path, undoing the
// drive-letter slash FileURI prepends.
func PathFromURI(uri string) (string, error) {
	p, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return "", fmt.Errorf("protocol: not a file URI: %q", uri)
	}
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' && isDriveLetter(p[1]) {
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}

func isDriveLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
