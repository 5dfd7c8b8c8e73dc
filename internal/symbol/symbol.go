// Package symbol defines the value types the index is built from: positions,
// ranges, project-relative locations, and the definition and reference
// records produced by extraction. Pure data, no behavior beyond trivial
// predicates.
package symbol

import "fmt"

// Position identifies a single character in a file's text. Line and Column
// are both 1-based.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Before reports whether p precedes q in document order.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range is a span of text between two positions. End is never before Start.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Valid reports whether the range's positions are 1-based and ordered.
func (r Range) Valid() bool {
	return r.Start.Line >= 1 && r.Start.Column >= 1 && !r.End.Before(r.Start)
}

// Location is a range within a project file. File is always relative to the
// resolved project root and slash-separated, never absolute, so locations
// stay portable across root re-resolutions and compare directly for
// deduplication.
type Location struct {
	File  string `json:"file"`
	Range Range  `json:"range"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.File, l.Range.Start)
}

// Kind classifies a definition site.
type Kind string

const (
	KindClass       Kind = "class"
	KindInterface   Kind = "interface"
	KindEnum        Kind = "enum"
	KindMethod      Kind = "method"
	KindProperty    Kind = "property"
	KindConstructor Kind = "constructor"
	KindTrigger     Kind = "trigger"
	KindUnknown     Kind = "unknown"
)

// ParseKind maps a kind name to its Kind, falling back to KindUnknown.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindClass, KindInterface, KindEnum, KindMethod,
		KindProperty, KindConstructor, KindTrigger:
		return Kind(s)
	}
	return KindUnknown
}

// Definition is a named declaration site. The range covers the symbol's name
// token, not the whole declaration body.
type Definition struct {
	Location
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Reference is a non-declaring occurrence of a symbol name.
type Reference struct {
	Location
	Name string `json:"name"`
}
