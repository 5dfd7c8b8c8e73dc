package extract

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/KamilGolis/Apex-Indexer-LS/internal/symbol"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/workspace"
)

// definitionNodes maps Java-grammar declaration node types to symbol kinds.
// Apex is Java-family; tree-sitter's error recovery keeps name-level
// extraction usable on the constructs the grammar doesn't know.
var definitionNodes = map[string]symbol.Kind{
	"class_declaration":       symbol.KindClass,
	"interface_declaration":   symbol.KindInterface,
	"enum_declaration":        symbol.KindEnum,
	"method_declaration":      symbol.KindMethod,
	"constructor_declaration": symbol.KindConstructor,
}

// triggerHeader recognizes the Apex trigger declaration, which has no Java
// equivalent: `trigger <Name> on <SObject> (...)`.
var triggerHeader = regexp.MustCompile(`(?i)^\s*trigger\s+([A-Za-z_][A-Za-z0-9_]*)\s+on\b`)

// ApexExtractor parses Apex classes and triggers with the tree-sitter Java
// grammar and reports every declaration name plus every identifier-like token
// that does not coincide with one. Reference precision is deliberately loose:
// any same-named identifier counts, with no scope or type awareness.
type ApexExtractor struct{}

// NewApexExtractor returns a tree-sitter backed extractor for .cls and
// .trigger files.
func NewApexExtractor() *ApexExtractor {
	return &ApexExtractor{}
}

// Extract reads and parses absPath, returning its definitions and references
// with project-relative locations.
func (x *ApexExtractor) Extract(ctx context.Context, absPath, projectRoot string) (*FileSymbols, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	rel, err := workspace.RelPath(projectRoot, absPath)
	if err != nil {
		return nil, fmt.Errorf("relativize path: %w", err)
	}

	// A fresh parser per call keeps Extract safe for concurrent use.
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	out := &FileSymbols{Path: rel}

	if strings.HasSuffix(strings.ToLower(absPath), ".trigger") {
		if d, ok := scanTriggerHeader(content, rel); ok {
			out.Definitions = append(out.Definitions, d)
		}
	}

	collectDefinitions(tree.RootNode(), content, rel, &out.Definitions)

	// Reference occurrences whose range coincides with a definition's range
	// are excluded here; the engine assumes this already happened.
	defRanges := make(map[symbol.Range]struct{}, len(out.Definitions))
	for _, d := range out.Definitions {
		defRanges[d.Range] = struct{}{}
	}
	collectReferences(tree.RootNode(), content, rel, defRanges, &out.References)

	return out, nil
}

// collectDefinitions walks the syntax tree appending a definition for each
// declaration node whose name field is present.
func collectDefinitions(n *sitter.Node, content []byte, rel string, defs *[]symbol.Definition) {
	if kind, ok := definitionNodes[n.Type()]; ok {
		if name := n.ChildByFieldName("name"); name != nil {
			*defs = append(*defs, symbol.Definition{
				Location: nodeLocation(name, rel),
				Name:     name.Content(content),
				Kind:     kind,
			})
		}
	} else {
		switch n.Type() {
		case "field_declaration":
			// Apex fields and auto-properties both surface as fields; the
			// name lives on the variable_declarator child.
			if decl := n.ChildByFieldName("declarator"); decl != nil {
				if name := decl.ChildByFieldName("name"); name != nil {
					*defs = append(*defs, symbol.Definition{
						Location: nodeLocation(name, rel),
						Name:     name.Content(content),
						Kind:     symbol.KindProperty,
					})
				}
			}
		case "enum_constant":
			if name := n.ChildByFieldName("name"); name != nil {
				*defs = append(*defs, symbol.Definition{
					Location: nodeLocation(name, rel),
					Name:     name.Content(content),
					Kind:     symbol.KindProperty,
				})
			}
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectDefinitions(n.NamedChild(i), content, rel, defs)
	}
}

// collectReferences appends every identifier-like token that is not a
// definition name.
func collectReferences(n *sitter.Node, content []byte, rel string, defRanges map[symbol.Range]struct{}, refs *[]symbol.Reference) {
	switch n.Type() {
	case "identifier", "type_identifier":
		loc := nodeLocation(n, rel)
		if _, isDef := defRanges[loc.Range]; !isDef {
			*refs = append(*refs, symbol.Reference{
				Location: loc,
				Name:     n.Content(content),
			})
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectReferences(n.NamedChild(i), content, rel, defRanges, refs)
	}
}

// scanTriggerHeader finds the trigger declaration by line scan, since the
// Java grammar cannot parse it.
func scanTriggerHeader(content []byte, rel string) (symbol.Definition, bool) {
	for i, line := range strings.Split(string(content), "\n") {
		m := triggerHeader.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		name := line[m[2]:m[3]]
		start := symbol.Position{Line: i + 1, Column: m[2] + 1}
		return symbol.Definition{
			Location: symbol.Location{
				File: rel,
				Range: symbol.Range{
					Start: start,
					End:   symbol.Position{Line: start.Line, Column: start.Column + len(name)},
				},
			},
			Name: name,
			Kind: symbol.KindTrigger,
		}, true
	}
	return symbol.Definition{}, false
}

// nodeLocation converts a node's 0-based tree-sitter points to the index's
// 1-based addressing.
func nodeLocation(n *sitter.Node, rel string) symbol.Location {
	return symbol.Location{
		File: rel,
		Range: symbol.Range{
			Start: symbol.Position{
				Line:   int(n.StartPoint().Row) + 1,
				Column: int(n.StartPoint().Column) + 1,
			},
			End: symbol.Position{
				Line:   int(n.EndPoint().Row) + 1,
				Column: int(n.EndPoint().Column) + 1,
			},
		},
	}
}
