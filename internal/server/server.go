// Package server binds the index engine to the editor protocol over a byte
// stream, normally stdin/stdout. One server serves one editor session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	apexindex "github.com/KamilGolis/Apex-Indexer-LS"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/protocol"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/symbol"
)

// Server speaks the editor protocol on a single connection and owns the
// engine for that session. Requests are handled synchronously in arrival
// order, including the initial rebuild: queries arriving during it see the
// index only once it is complete.
type Server struct {
	conn   *conn
	engine *apexindex.Engine
	logger *slog.Logger

	rootPath     string
	shutdownSeen bool

	// engineOpts accumulates before New builds the engine.
	engineOpts []apexindex.Option
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger. Protocol output owns stdout, so this
// should write to stderr or a file.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithEngineOptions forwards options to the session's engine, in addition to
// the progress wiring the server installs itself.
func WithEngineOptions(opts ...apexindex.Option) Option {
	return func(s *Server) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// New creates a server reading requests from r and writing responses to w.
func New(r io.Reader, w io.Writer, opts ...Option) *Server {
	s := &Server{
		conn:   newConn(r, w),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	engineOpts := append([]apexindex.Option{
		apexindex.WithLogger(s.logger),
		apexindex.WithProgress(s.sendProgress),
	}, s.engineOpts...)
	s.engine = apexindex.New(engineOpts...)
	return s
}

// Run serves the connection until the client sends exit or closes the stream.
func (s *Server) Run(ctx context.Context) error {
	for {
		msg, err := s.conn.read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}
		if msg.Method == "exit" {
			return nil
		}
		// A message with an id but no method is a response to a
		// server-initiated request; nothing here expects one.
		if msg.Method == "" {
			continue
		}
		if err := s.dispatch(ctx, msg); err != nil {
			return err
		}
	}
}

func (s *Server) dispatch(ctx context.Context, msg *incoming) error {
	if s.shutdownSeen && msg.ID != nil {
		return s.conn.respondError(msg.ID, codeInvalidRequest, "server is shutting down")
	}
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		s.handleInitialized(ctx)
		return nil
	case "shutdown":
		s.shutdownSeen = true
		return s.conn.respond(msg.ID, json.RawMessage("null"))
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/references":
		return s.handleReferences(msg)
	case "textDocument/didSave":
		s.handleDidSave(ctx, msg)
		return nil
	case "workspace/symbol":
		return s.handleWorkspaceSymbol(msg)
	default:
		if msg.ID != nil {
			return s.conn.respondError(msg.ID, codeMethodNotFound,
				fmt.Sprintf("unsupported method %q", msg.Method))
		}
		return nil // unknown notifications are ignored
	}
}

func (s *Server) handleInitialize(msg *incoming) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.conn.respondError(msg.ID, codeInvalidParams, err.Error())
	}

	if params.RootURI != "" {
		if p, err := protocol.PathFromURI(params.RootURI); err == nil {
			s.rootPath = p
		}
	}
	if s.rootPath == "" {
		s.rootPath = params.RootPath
	}

	return s.conn.respond(msg.ID, protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync:        protocol.TextDocumentSyncOptions{Save: true},
			DefinitionProvider:      true,
			ReferencesProvider:      true,
			WorkspaceSymbolProvider: true,
		},
	})
}

// handleInitialized runs the initial rebuild. It blocks the read loop on
// purpose: the first query a client sends after this notification sees a
// complete index, never a partial one.
func (s *Server) handleInitialized(ctx context.Context) {
	if s.rootPath == "" {
		s.logger.Warn("client sent no workspace root; indexing disabled")
		return
	}
	if err := s.engine.Initialize(ctx, s.rootPath); err != nil {
		s.logger.Error("workspace initialization failed", "error", err)
	}
}

func (s *Server) handleDefinition(msg *incoming) error {
	var params protocol.TextDocumentPositionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.conn.respondError(msg.ID, codeInvalidParams, err.Error())
	}
	name := s.symbolAt(params)
	if name == "" {
		return s.conn.respond(msg.ID, []protocol.Location{})
	}
	locs, err := s.toProtocolLocations(s.engine.FindDefinitions(name))
	if err != nil {
		return s.conn.respondError(msg.ID, codeInternalError, err.Error())
	}
	return s.conn.respond(msg.ID, locs)
}

func (s *Server) handleReferences(msg *incoming) error {
	var params protocol.ReferenceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.conn.respondError(msg.ID, codeInvalidParams, err.Error())
	}
	name := s.symbolAt(params.TextDocumentPositionParams)
	if name == "" {
		return s.conn.respond(msg.ID, []protocol.Location{})
	}

	found := s.engine.FindReferences(name)
	if params.Context.IncludeDeclaration {
		found = append(s.engine.FindDefinitions(name), found...)
	}
	locs, err := s.toProtocolLocations(found)
	if err != nil {
		return s.conn.respondError(msg.ID, codeInternalError, err.Error())
	}
	return s.conn.respond(msg.ID, locs)
}

func (s *Server) handleDidSave(ctx context.Context, msg *incoming) {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("malformed didSave notification", "error", err)
		return
	}
	path, err := protocol.PathFromURI(params.TextDocument.URI)
	if err != nil {
		s.logger.Warn("didSave with non-file URI", "uri", params.TextDocument.URI)
		return
	}
	if err := s.engine.HandleFileSave(ctx, path); err != nil {
		s.logger.Warn("reindex on save failed", "path", path, "error", err)
	}
}

func (s *Server) handleWorkspaceSymbol(msg *incoming) error {
	var params protocol.WorkspaceSymbolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.conn.respondError(msg.ID, codeInvalidParams, err.Error())
	}

	defs := s.engine.SearchDefinitions(params.Query)
	out := make([]protocol.SymbolInformation, 0, len(defs))
	for _, d := range defs {
		loc, err := protocol.FromIndexLocation(s.engine.Root(), d.Location)
		if err != nil {
			return s.conn.respondError(msg.ID, codeInternalError, err.Error())
		}
		out = append(out, protocol.SymbolInformation{
			Name:     d.Name,
			Kind:     symbolKind(d.Kind),
			Location: loc,
		})
	}
	return s.conn.respond(msg.ID, out)
}

// symbolAt resolves a positional request to the identifier under the cursor
// by reading the file from disk. The index re-reads source on save, so disk
// is the same content the index saw.
func (s *Server) symbolAt(params protocol.TextDocumentPositionParams) string {
	path, err := protocol.PathFromURI(params.TextDocument.URI)
	if err != nil {
		return ""
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return wordAt(string(content), params.Position)
}

// wordAt returns the identifier covering the given 0-based position, or ""
// when the position is not on one.
func wordAt(content string, pos protocol.Position) string {
	lines := strings.Split(content, "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return ""
	}
	line := strings.TrimRight(lines[pos.Line], "\r")
	col := pos.Character
	if col > len(line) {
		return ""
	}
	// A cursor at the end of a word still refers to it.
	if col == len(line) || !isWordChar(line[col]) {
		if col == 0 || !isWordChar(line[col-1]) {
			return ""
		}
		col--
	}
	start, end := col, col+1
	for start > 0 && isWordChar(line[start-1]) {
		start--
	}
	for end < len(line) && isWordChar(line[end]) {
		end++
	}
	return line[start:end]
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (s *Server) toProtocolLocations(locs []symbol.Location) ([]protocol.Location, error) {
	out := make([]protocol.Location, 0, len(locs))
	for _, l := range locs {
		pl, err := protocol.FromIndexLocation(s.engine.Root(), l)
		if err != nil {
			return nil, err
		}
		out = append(out, pl)
	}
	return out, nil
}

// symbolKind maps index kinds onto the protocol's numeric ones. Triggers have
// no protocol equivalent and surface as classes.
func symbolKind(k symbol.Kind) protocol.SymbolKind {
	switch k {
	case symbol.KindClass, symbol.KindTrigger:
		return protocol.SymbolKindClass
	case symbol.KindInterface:
		return protocol.SymbolKindInterface
	case symbol.KindEnum:
		return protocol.SymbolKindEnum
	case symbol.KindMethod:
		return protocol.SymbolKindMethod
	case symbol.KindProperty:
		return protocol.SymbolKindProperty
	case symbol.KindConstructor:
		return protocol.SymbolKindConstructor
	default:
		return protocol.SymbolKindVariable
	}
}

// sendProgress forwards engine rebuild progress as $/progress notifications.
func (s *Server) sendProgress(p apexindex.Progress) {
	value := protocol.ProgressValue{Kind: string(p.Phase), Message: p.Message}
	switch p.Phase {
	case apexindex.ProgressBegin:
		value.Title = "Indexing Apex workspace"
	case apexindex.ProgressReport:
		value.Percentage = p.Percentage
	}
	if err := s.conn.notify("$/progress", protocol.ProgressParams{Token: p.Token, Value: value}); err != nil {
		s.logger.Warn("progress notification failed", "error", err)
	}
}
