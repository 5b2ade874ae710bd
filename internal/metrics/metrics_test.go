package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.ObserveMessage("initialize", "request")
	r.ObserveMessage("initialize", "request")
	r.ObserveMessage("exit", "notification")
	r.ObserveParseError("lex_illegal")
	r.ObserveFramingError("frame_too_large")
	r.ObserveFrame(128)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Messages.WithLabelValues("initialize", "request")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Messages.WithLabelValues("exit", "notification")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ParseErrors.WithLabelValues("lex_illegal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FramingErrors.WithLabelValues("frame_too_large")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.FrameBytes))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveMessage("exit", "notification")
	r.ObserveParseError("x")
	r.ObserveFramingError("x")
	r.ObserveFrame(1)
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.ObserveParseError("not_an_object")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `solbot_lsp_parse_errors_total{reason="not_an_object"} 1`), string(body))
}
