package stdio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ggoodman/solbot-lsp/internal/jsonrpc"
	"github.com/ggoodman/solbot-lsp/internal/logctx"
	"github.com/ggoodman/solbot-lsp/internal/metrics"
	"github.com/ggoodman/solbot-lsp/lsp"
	"github.com/ggoodman/solbot-lsp/lspservice"
)

// ErrExitWithoutShutdown is returned by Serve when the client sent exit
// before a shutdown request. Processes should exit with status 1.
var ErrExitWithoutShutdown = errors.New("stdio: exit received without prior shutdown")

// Handler is a single-connection stdio transport that reads Content-Length
// framed JSON-RPC messages from an io.Reader and writes responses to an
// io.Writer. By default, it uses os.Stdin and os.Stdout.
//
// The handler is transport-only; it delegates all LSP semantics to the
// provided lspservice.Server.
type Handler struct {
	srv *lspservice.Server

	r io.Reader
	w io.Writer
	l *slog.Logger
	m *metrics.Recorder

	extract          jsonrpc.ExtractOptions
	maxContentLength int
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(srv *lspservice.Server, opts ...Option) *Handler {
	h := &Handler{
		srv:              srv,
		r:                os.Stdin,
		w:                os.Stdout,
		l:                slog.Default(),
		maxContentLength: DefaultMaxContentLength,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve runs the stdio event loop until the client sends exit, the reader
// reaches EOF or the context is canceled. It is safe to call at most once
// per Handler. Messages are handled strictly one at a time: read, extract,
// dispatch, write.
//
// Serve returns nil after shutdown followed by exit and on EOF at a frame
// boundary, ErrExitWithoutShutdown when exit arrives first, and a wrapped
// error when the input stream can no longer be framed. Malformed message
// bodies are answered with an error response and never end the loop.
func (h *Handler) Serve(ctx context.Context) error {
	sess := lspservice.NewSession()
	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sess.ID()})

	// Unblock a pending read when the context ends.
	if c, ok := h.r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}

	fr := NewFrameReader(h.r, h.maxContentLength)
	fw := NewFrameWriter(h.w)

	h.l.InfoContext(ctx, "stdio.serve.start", slog.Int("max_content_length", h.maxContentLength))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := fr.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				h.l.InfoContext(ctx, "stdio.serve.eof", slog.String("state", sess.State().String()))
				return nil
			}

			h.m.ObserveFramingError(framingReason(err))
			if errors.Is(err, ErrFrameTooLarge) {
				h.l.WarnContext(ctx, "stdio.frame.too_large", slog.String("err", err.Error()))
				resp := jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidRequest, err.Error(), nil)
				if err := h.write(fw, resp); err != nil {
					return err
				}
				continue
			}

			h.l.ErrorContext(ctx, "stdio.frame.fail", slog.String("err", err.Error()))
			return fmt.Errorf("read frame: %w", err)
		}
		h.m.ObserveFrame(len(body))

		res, err := h.handle(ctx, fw, sess, body)
		if err != nil {
			return err
		}
		if res.Status == lspservice.StatusExit {
			if res.ExitCode != 0 {
				return ErrExitWithoutShutdown
			}
			return nil
		}
	}
}

// handle processes one frame body. The body is only valid until the next
// read, so nothing derived from it may outlive this call.
func (h *Handler) handle(ctx context.Context, fw *FrameWriter, sess *lspservice.Session, body []byte) (lspservice.Result, error) {
	msg, err := jsonrpc.ExtractWith(body, h.extract)
	if err != nil {
		reason := jsonrpc.Reason(err)
		h.m.ObserveParseError(reason)
		h.l.WarnContext(ctx, "stdio.message.malformed",
			slog.String("reason", reason),
			slog.String("err", err.Error()),
		)
		resp := jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeFor(err), err.Error(), nil)
		return lspservice.Result{}, h.write(fw, resp)
	}

	typ := "request"
	if msg.IsNotification() {
		typ = "notification"
	}
	// Metric labels use the closed method set so arbitrary client input
	// cannot grow label cardinality.
	h.m.ObserveMessage(lsp.ParseMethod(msg.Method).String(), typ)

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: string(msg.Method),
		ID:     msg.RequestID().String(),
		Type:   typ,
	})
	h.l.DebugContext(ctx, "stdio.message.recv", slog.Int("params_bytes", len(msg.Params)))

	res := h.srv.Dispatch(ctx, sess, msg)
	if res.Response != nil {
		if err := h.write(fw, res.Response); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (h *Handler) write(fw *FrameWriter, resp *jsonrpc.Response) error {
	if err := fw.Write(resp); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
