// Package protocol contains the editor protocol's wire types and the
// translation between the index's internal addressing (1-based, root-relative
// paths) and the protocol's (0-based, file URIs).
package protocol

// Position is a protocol position: zero-based line and character.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a protocol range between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location addresses a range inside a resource identified by URI.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// TextDocumentIdentifier names a document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentPositionParams is the common request shape for positional
// queries.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// ReferenceParams is the textDocument/references request payload.
type ReferenceParams struct {
	TextDocumentPositionParams
	Context ReferenceContext `json:"context"`
}

// ReferenceContext carries the references request options.
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// DidSaveTextDocumentParams is the textDocument/didSave notification payload.
type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// WorkspaceSymbolParams is the workspace/symbol request payload.
type WorkspaceSymbolParams struct {
	Query string `json:"query"`
}

// SymbolInformation is a workspace/symbol result entry.
type SymbolInformation struct {
	Name     string     `json:"name"`
	Kind     SymbolKind `json:"kind"`
	Location Location   `json:"location"`
}

// SymbolKind is the protocol's numeric symbol classification.
type SymbolKind int

// The subset of protocol symbol kinds the index produces.
const (
	SymbolKindClass       SymbolKind = 5
	SymbolKindMethod      SymbolKind = 6
	SymbolKindProperty    SymbolKind = 7
	SymbolKindConstructor SymbolKind = 9
	SymbolKindEnum        SymbolKind = 10
	SymbolKindInterface   SymbolKind = 11
	SymbolKindVariable    SymbolKind = 13
)

// InitializeParams is the initialize request payload. RootPath is the
// deprecated pre-URI field some clients still send.
type InitializeParams struct {
	ProcessID int    `json:"processId"`
	RootURI   string `json:"rootUri"`
	RootPath  string `json:"rootPath,omitempty"`
}

// InitializeResult advertises the server's capabilities.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

// ServerCapabilities is the subset of capabilities this server implements.
type ServerCapabilities struct {
	TextDocumentSync        TextDocumentSyncOptions `json:"textDocumentSync"`
	DefinitionProvider      bool                    `json:"definitionProvider"`
	ReferencesProvider      bool                    `json:"referencesProvider"`
	WorkspaceSymbolProvider bool                    `json:"workspaceSymbolProvider"`
}

// TextDocumentSyncOptions declares which document notifications the server
// wants. Only save matters here: the index re-reads files from disk.
type TextDocumentSyncOptions struct {
	Save bool `json:"save"`
}

// ProgressParams is the $/progress notification payload.
type ProgressParams struct {
	Token string        `json:"token"`
	Value ProgressValue `json:"value"`
}

// ProgressValue is the work-done progress body: kind is begin, report or end.
type ProgressValue struct {
	Kind       string `json:"kind"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}
