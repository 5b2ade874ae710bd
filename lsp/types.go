package lsp

import "encoding/json"

// TraceValue controls the verbosity of $/logTrace notifications.
type TraceValue string

const (
	TraceOff      TraceValue = "off"
	TraceMessages TraceValue = "messages"
	TraceVerbose  TraceValue = "verbose"
)

// IsValidTraceValue reports whether v is one of the protocol-defined values.
func IsValidTraceValue(v TraceValue) bool {
	switch v {
	case TraceOff, TraceMessages, TraceVerbose:
		return true
	default:
		return false
	}
}

// ClientInfo identifies the editor connecting to the server.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ServerInfo identifies this server in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeParams is the payload of the initialize request. Client
// capabilities are kept raw; the server does not act on them yet.
type InitializeParams struct {
	ProcessID    *int            `json:"processId"`
	ClientInfo   *ClientInfo     `json:"clientInfo,omitempty"`
	Locale       string          `json:"locale,omitempty"`
	RootURI      *string         `json:"rootUri"`
	Capabilities json.RawMessage `json:"capabilities,omitempty"`
	Trace        TraceValue      `json:"trace,omitempty"`
}

// TextDocumentSyncKind defines how the client syncs document changes.
type TextDocumentSyncKind int

const (
	TextDocumentSyncNone        TextDocumentSyncKind = 0
	TextDocumentSyncFull        TextDocumentSyncKind = 1
	TextDocumentSyncIncremental TextDocumentSyncKind = 2
)

// ServerCapabilities advertises server features. An empty value encodes as
// {} which tells the client the server offers nothing beyond the lifecycle.
type ServerCapabilities struct {
	PositionEncoding string                `json:"positionEncoding,omitempty"`
	TextDocumentSync *TextDocumentSyncKind `json:"textDocumentSync,omitempty"`
}

// InitializeResult returns the server capabilities and identity.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// SetTraceParams is the payload of $/setTrace.
type SetTraceParams struct {
	Value TraceValue `json:"value"`
}

// CancelParams is the payload of $/cancelRequest. The id may be a number or
// a string on the wire.
type CancelParams struct {
	ID json.RawMessage `json:"id"`
}
