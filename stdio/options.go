package stdio

import (
	"io"
	"log/slog"

	"github.com/ggoodman/solbot-lsp/internal/jsonrpc"
	"github.com/ggoodman/solbot-lsp/internal/metrics"
)

// Option customizes a Handler.
type Option func(*Handler)

// WithIO sets the reader and writer for the handler.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
		if w != nil {
			h.w = w
		}
	}
}

// WithReader overrides the input stream.
func WithReader(r io.Reader) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
	}
}

// WithWriter overrides the output stream.
func WithWriter(w io.Writer) Option {
	return func(h *Handler) {
		if w != nil {
			h.w = w
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.l = l
		}
	}
}

// WithMetrics records message, error and frame size metrics on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(h *Handler) {
		h.m = m
	}
}

// WithExtractOptions sets the policy used when extracting message fields.
func WithExtractOptions(opts jsonrpc.ExtractOptions) Option {
	return func(h *Handler) {
		h.extract = opts
	}
}

// WithMaxContentLength bounds the size of a single message body. Values of
// zero or less keep the default.
func WithMaxContentLength(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxContentLength = n
		}
	}
}
