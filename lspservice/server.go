package lspservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ggoodman/solbot-lsp/internal/jsonrpc"
	"github.com/ggoodman/solbot-lsp/lsp"
)

// Status tells the transport whether to keep reading messages.
type Status uint8

const (
	StatusContinue Status = iota
	StatusExit
)

// Result is the outcome of dispatching one message.
type Result struct {
	Status Status
	// Response is nil when nothing should be written back.
	Response *jsonrpc.Response
	// ExitCode is meaningful only with StatusExit: 0 when shutdown preceded
	// exit, 1 otherwise.
	ExitCode int
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// Server routes extracted messages to the lifecycle handlers. It holds only
// immutable configuration; all per-connection state lives in Session.
type Server struct {
	info lsp.ServerInfo
	caps lsp.ServerCapabilities
	log  *slog.Logger
}

// NewServer builds a Server using functional options.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		info: lsp.ServerInfo{Name: "solbot-lsp"},
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithServerInfo sets the identity reported in the initialize result.
func WithServerInfo(info lsp.ServerInfo) ServerOption {
	return func(s *Server) { s.info = info }
}

// WithCapabilities sets the capabilities advertised during initialize.
func WithCapabilities(caps lsp.ServerCapabilities) ServerOption {
	return func(s *Server) { s.caps = caps }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Dispatch handles one message against sess. Requests always produce a
// response; notifications never do. The message's borrowed views are not
// retained past the call.
func (s *Server) Dispatch(ctx context.Context, sess *Session, msg jsonrpc.Message) Result {
	method := lsp.ParseMethod(msg.Method)
	id := msg.RequestID()

	if msg.Method == nil {
		if msg.HasID {
			return errorResult(id, jsonrpc.ErrorCodeInvalidRequest, "missing method")
		}
		s.log.DebugContext(ctx, "rpc.method.missing")
		return Result{}
	}

	// exit is honored in every state.
	if method == lsp.MethodExit {
		return s.exit(ctx, sess)
	}

	if method != lsp.MethodUnknown && method.IsRequest() != msg.HasID {
		if msg.HasID {
			return errorResult(id, jsonrpc.ErrorCodeInvalidRequest, fmt.Sprintf("%s is a notification", method))
		}
		s.log.WarnContext(ctx, "rpc.request.missing_id", slog.String("method", method.String()))
		return Result{}
	}

	switch sess.state {
	case StateUninitialized:
		if method != lsp.MethodInitialize {
			if msg.HasID {
				return errorResult(id, jsonrpc.ErrorCodeServerNotInitialized, "server not initialized")
			}
			s.log.DebugContext(ctx, "rpc.notification.before_init", slog.String("method", string(msg.Method)))
			return Result{}
		}
	case StateShutdownRequested, StateExited:
		if msg.HasID {
			return errorResult(id, jsonrpc.ErrorCodeInvalidRequest, "server is shutting down")
		}
		s.log.DebugContext(ctx, "rpc.notification.after_shutdown", slog.String("method", string(msg.Method)))
		return Result{}
	}

	switch method {
	case lsp.MethodInitialize:
		return s.initialize(ctx, sess, id, msg.Params)
	case lsp.MethodInitialized:
		s.log.InfoContext(ctx, "lifecycle.initialized")
		return Result{}
	case lsp.MethodShutdown:
		sess.state = StateShutdownRequested
		s.log.InfoContext(ctx, "lifecycle.shutdown")
		return resultOf(id, nil)
	case lsp.MethodCancelRequest:
		s.cancelRequest(ctx, msg.Params)
		return Result{}
	case lsp.MethodSetTrace:
		s.setTrace(ctx, sess, msg.Params)
		return Result{}
	default:
		if msg.HasID {
			return errorResult(id, jsonrpc.ErrorCodeMethodNotFound, "method not found: "+string(msg.Method))
		}
		s.log.DebugContext(ctx, "rpc.notification.unknown", slog.String("method", string(msg.Method)))
		return Result{}
	}
}

func (s *Server) initialize(ctx context.Context, sess *Session, id *jsonrpc.RequestID, params []byte) Result {
	if sess.state != StateUninitialized {
		return errorResult(id, jsonrpc.ErrorCodeInvalidRequest, "server already initialized")
	}
	if len(params) == 0 || string(params) == "null" {
		return errorResult(id, jsonrpc.ErrorCodeInvalidParams, "initialize requires params")
	}

	var p lsp.InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResult(id, jsonrpc.ErrorCodeInvalidParams, fmt.Sprintf("invalid initialize params: %v", err))
	}
	if p.Trace != "" && !lsp.IsValidTraceValue(p.Trace) {
		return errorResult(id, jsonrpc.ErrorCodeInvalidParams, fmt.Sprintf("invalid trace value %q", p.Trace))
	}

	if p.ClientInfo != nil {
		sess.client = *p.ClientInfo
	}
	if p.Trace != "" {
		sess.trace = p.Trace
	}
	sess.state = StateInitialized

	s.log.InfoContext(ctx, "lifecycle.initialize.ok",
		slog.String("client_name", sess.client.Name),
		slog.String("client_version", sess.client.Version),
		slog.String("trace", string(sess.trace)),
	)

	info := s.info
	return resultOf(id, &lsp.InitializeResult{Capabilities: s.caps, ServerInfo: &info})
}

func (s *Server) setTrace(ctx context.Context, sess *Session, params []byte) {
	var p lsp.SetTraceParams
	if err := json.Unmarshal(params, &p); err != nil || !lsp.IsValidTraceValue(p.Value) {
		s.log.WarnContext(ctx, "trace.params.invalid", slog.String("params", string(params)))
		return
	}
	sess.trace = p.Value
}

// cancelRequest only logs. Requests are handled to completion before the
// next message is read, so nothing is ever in flight to cancel.
func (s *Server) cancelRequest(ctx context.Context, params []byte) {
	var p lsp.CancelParams
	if err := json.Unmarshal(params, &p); err != nil || len(p.ID) == 0 || string(p.ID) == "null" {
		s.log.WarnContext(ctx, "rpc.cancel.params.invalid", slog.String("params", string(params)))
		return
	}
	var target jsonrpc.RequestID
	if err := json.Unmarshal(p.ID, &target); err != nil {
		// String ids are legal here even though requests only carry integers.
		s.log.DebugContext(ctx, "rpc.cancel.ignored", slog.String("target_id", string(p.ID)))
		return
	}
	s.log.DebugContext(ctx, "rpc.cancel.ignored", slog.String("target_id", target.String()))
}

func (s *Server) exit(ctx context.Context, sess *Session) Result {
	code := 1
	if sess.state == StateShutdownRequested {
		code = 0
	}
	sess.state = StateExited
	s.log.InfoContext(ctx, "lifecycle.exit", slog.Int("exit_code", code))
	return Result{Status: StatusExit, ExitCode: code}
}

func resultOf(id *jsonrpc.RequestID, v any) Result {
	resp, err := jsonrpc.NewResultResponse(id, v)
	if err != nil {
		return errorResult(id, jsonrpc.ErrorCodeInternalError, err.Error())
	}
	return Result{Response: resp}
}

func errorResult(id *jsonrpc.RequestID, code jsonrpc.ErrorCode, message string) Result {
	return Result{Response: jsonrpc.NewErrorResponse(id, code, message, nil)}
}
