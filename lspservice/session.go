package lspservice

import (
	"github.com/google/uuid"

	"github.com/ggoodman/solbot-lsp/lsp"
)

// SessionState tracks where a connection is in the LSP lifecycle.
type SessionState uint8

const (
	StateUninitialized SessionState = iota
	StateInitialized
	StateShutdownRequested
	StateExited
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateShutdownRequested:
		return "shutdown_requested"
	case StateExited:
		return "exited"
	default:
		return "invalid"
	}
}

// Session is the per-connection state the dispatcher reads and mutates. The
// transport owns it and passes it to every Dispatch call; it is not safe for
// concurrent use.
type Session struct {
	id     string
	state  SessionState
	client lsp.ClientInfo
	trace  lsp.TraceValue
}

// NewSession returns a fresh, uninitialized session with a random ID used to
// correlate log lines.
func NewSession() *Session {
	return &Session{id: uuid.NewString(), trace: lsp.TraceOff}
}

func (s *Session) ID() string                 { return s.id }
func (s *Session) State() SessionState        { return s.state }
func (s *Session) ClientInfo() lsp.ClientInfo { return s.client }
func (s *Session) Trace() lsp.TraceValue      { return s.trace }

// ShutdownRequested reports whether the client sent shutdown before exit.
func (s *Session) ShutdownRequested() bool { return s.state == StateShutdownRequested }
