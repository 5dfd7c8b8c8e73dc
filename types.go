package apexindex

import (
	"github.com/KamilGolis/Apex-Indexer-LS/internal/index"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/symbol"
)

// Public type aliases for the internal value types used in the Engine API.
// These are Go type aliases (=) — identical to the internal types at compile
// time, so no conversion is needed.

type Position = symbol.Position
type Range = symbol.Range
type Location = symbol.Location
type Kind = symbol.Kind
type Definition = symbol.Definition
type Reference = symbol.Reference
type Stats = index.Stats

// The definition kinds the extractor produces.
const (
	KindClass       = symbol.KindClass
	KindInterface   = symbol.KindInterface
	KindEnum        = symbol.KindEnum
	KindMethod      = symbol.KindMethod
	KindProperty    = symbol.KindProperty
	KindConstructor = symbol.KindConstructor
	KindTrigger     = symbol.KindTrigger
	KindUnknown     = symbol.KindUnknown
)
