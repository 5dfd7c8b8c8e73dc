// Package apexindex maintains a live, queryable index of Apex symbol
// definitions and references across a source tree, answering "where is X
// defined / used" lookups for editor integration.
//
// # Pipeline
//
// The engine works in two modes:
//
//  1. Full rebuild: enumerate the workspace's .cls and .trigger files, parse
//     each with tree-sitter, and populate two name-keyed stores (definitions
//     and references) plus the set of indexed files.
//
//  2. Incremental update: on save, replace exactly one file's contribution —
//     stale entries removed, fresh extraction inserted, atomically with
//     respect to concurrent lookups.
//
// # Usage
//
// Create an Engine, initialize it at a workspace path, and query by name:
//
//	e := apexindex.New()
//	if err := e.Initialize(ctx, "/path/to/project"); err != nil { ... }
//
//	locs := e.FindDefinitions("AccountService")
//	refs := e.FindReferences("AccountService")
//
// Lookups are exact-name and case-sensitive, returned in indexing order.
// The index is purely name-keyed: there is no type resolution or scope-aware
// binding, and nothing is persisted — every process start rebuilds from
// source.
//
// # Addressing
//
// Internally all locations are 1-based and project-root-relative. The
// internal/protocol package translates to the editor protocol's 0-based
// positions and file URIs; internal/server binds the engine to LSP over
// stdio, and internal/watch feeds filesystem save events into
// [Engine.HandleFileSave].
package apexindex
