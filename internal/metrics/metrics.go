package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the server's Prometheus collectors on a private registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	// Messages counts dispatched messages by method and type
	// (request, notification).
	Messages *prometheus.CounterVec
	// ParseErrors counts bodies the extractor rejected, by reason.
	ParseErrors *prometheus.CounterVec
	// FramingErrors counts frames dropped by the framing reader, by reason.
	FramingErrors *prometheus.CounterVec
	// FrameBytes observes the size of each message body.
	FrameBytes prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solbot_lsp_messages_total",
				Help: "Total number of JSON-RPC messages dispatched",
			},
			[]string{"method", "type"},
		),

		ParseErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solbot_lsp_parse_errors_total",
				Help: "Total number of message bodies rejected by the extractor",
			},
			[]string{"reason"},
		),

		FramingErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solbot_lsp_framing_errors_total",
				Help: "Total number of frames dropped by the framing reader",
			},
			[]string{"reason"},
		),

		FrameBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "solbot_lsp_frame_bytes",
				Help:    "Size of received message bodies in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8), // 64B .. 1MiB
			},
		),
	}

	r.registry.MustRegister(
		r.Messages,
		r.ParseErrors,
		r.FramingErrors,
		r.FrameBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveMessage counts one dispatched message.
func (r *Recorder) ObserveMessage(method, typ string) {
	if r == nil {
		return
	}
	r.Messages.WithLabelValues(method, typ).Inc()
}

// ObserveParseError counts one rejected body.
func (r *Recorder) ObserveParseError(reason string) {
	if r == nil {
		return
	}
	r.ParseErrors.WithLabelValues(reason).Inc()
}

// ObserveFramingError counts one dropped frame.
func (r *Recorder) ObserveFramingError(reason string) {
	if r == nil {
		return
	}
	r.FramingErrors.WithLabelValues(reason).Inc()
}

// ObserveFrame records the size of one received body.
func (r *Recorder) ObserveFrame(n int) {
	if r == nil {
		return
	}
	r.FrameBytes.Observe(float64(n))
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
