package stdio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggoodman/solbot-lsp/internal/jsonrpc"
	"github.com/ggoodman/solbot-lsp/internal/metrics"
	"github.com/ggoodman/solbot-lsp/lsp"
	"github.com/ggoodman/solbot-lsp/lspservice"
)

const waitTimeout = 2 * time.Second

// testHarness runs a Handler over a pair of pipes and collects the frames it
// writes.
type testHarness struct {
	t      *testing.T
	cancel context.CancelFunc
	stdinW *io.PipeWriter
	frames chan []byte
	done   chan error
}

func newHarness(t *testing.T, opts ...Option) *testHarness {
	t.Helper()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := lspservice.NewServer(
		lspservice.WithServerInfo(lsp.ServerInfo{Name: "solbot-lsp", Version: "test"}),
		lspservice.WithLogger(discard),
	)
	h := NewHandler(srv, append([]Option{WithIO(inR, outW), WithLogger(discard)}, opts...)...)

	ctx, cancel := context.WithCancel(context.Background())
	th := &testHarness{
		t:      t,
		cancel: cancel,
		stdinW: inW,
		frames: make(chan []byte, 16),
		done:   make(chan error, 1),
	}

	go func() {
		err := h.Serve(ctx)
		_ = outW.Close()
		th.done <- err
	}()

	go func() {
		defer close(th.frames)
		fr := NewFrameReader(outR, 0)
		for {
			body, err := fr.Next()
			if err != nil {
				return
			}
			th.frames <- append([]byte(nil), body...)
		}
	}()

	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
		_ = outR.Close()
	})
	return th
}

func (th *testHarness) send(body string) {
	th.t.Helper()
	_, err := fmt.Fprintf(th.stdinW, "Content-Length: %d\r\n\r\n%s", len(body), body)
	require.NoError(th.t, err)
}

func (th *testHarness) expectFrame() []byte {
	th.t.Helper()
	select {
	case b, ok := <-th.frames:
		require.True(th.t, ok, "output closed before a frame arrived")
		return b
	case <-time.After(waitTimeout):
		th.t.Fatal("timeout waiting for output frame")
		return nil
	}
}

func (th *testHarness) expectResponse() *jsonrpc.Response {
	th.t.Helper()
	var resp jsonrpc.Response
	require.NoError(th.t, json.Unmarshal(th.expectFrame(), &resp))
	return &resp
}

func (th *testHarness) expectDone() error {
	th.t.Helper()
	select {
	case err := <-th.done:
		return err
	case <-time.After(waitTimeout):
		th.t.Fatal("timeout waiting for Serve to return")
		return nil
	}
}

const initializeReq = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"processId":42,"clientInfo":{"name":"nvim"},"capabilities":{}}}`

func TestServeFullLifecycle(t *testing.T) {
	th := newHarness(t)

	th.send(initializeReq)
	resp := th.expectResponse()
	require.Nil(t, resp.Error)
	assert.Equal(t, int32(1), resp.ID.Value())

	var init lsp.InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &init))
	require.NotNil(t, init.ServerInfo)
	assert.Equal(t, "solbot-lsp", init.ServerInfo.Name)

	th.send(`{"jsonrpc":"2.0","method":"initialized","params":{}}`)

	th.send(`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`)
	assert.JSONEq(t, `{"jsonrpc":"2.0","result":null,"id":2}`, string(th.expectFrame()))

	th.send(`{"jsonrpc":"2.0","method":"exit"}`)
	assert.NoError(t, th.expectDone())
}

func TestServeExitWithoutShutdown(t *testing.T) {
	th := newHarness(t)

	th.send(initializeReq)
	th.expectResponse()

	th.send(`{"jsonrpc":"2.0","method":"exit"}`)
	assert.ErrorIs(t, th.expectDone(), ErrExitWithoutShutdown)
}

func TestServeMalformedMessageKeepsServing(t *testing.T) {
	rec := metrics.New()
	th := newHarness(t, WithMetrics(rec))

	th.send(`{"jsonrpc":"2.0","id":1,`)
	resp := th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeParseError, resp.Error.Code)
	assert.True(t, resp.ID.IsNil())

	th.send(`{"id": 7, "method": 12}`)
	resp = th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeInvalidRequest, resp.Error.Code)

	th.send(initializeReq)
	resp = th.expectResponse()
	assert.Nil(t, resp.Error)
	assert.Equal(t, int32(1), resp.ID.Value())

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.ParseErrors.WithLabelValues("malformed_key")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.ParseErrors.WithLabelValues("type_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Messages.WithLabelValues("initialize", "request")))
}

func TestServeLenientExtraction(t *testing.T) {
	th := newHarness(t, WithExtractOptions(jsonrpc.ExtractOptions{Lenient: true}))

	// The wrongly typed id is dropped, leaving an initialize notification,
	// which is ignored. The next request proves the loop is still alive.
	th.send(`{"id":"abc","method":"initialize","params":{}}`)
	th.send(`{"id":3,"method":"shutdown"}`)

	resp := th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeServerNotInitialized, resp.Error.Code)
	assert.Equal(t, int32(3), resp.ID.Value())
}

func TestServeMethodNotFound(t *testing.T) {
	th := newHarness(t)

	th.send(initializeReq)
	th.expectResponse()

	th.send(`{"jsonrpc":"2.0","id":5,"method":"textDocument/hover","params":{"position":{"line":0,"character":0}}}`)
	resp := th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, int32(5), resp.ID.Value())
}

func TestServeOversizedFrame(t *testing.T) {
	th := newHarness(t, WithMaxContentLength(64))

	th.send(`{"id":1,"method":"initialize","params":{"pad":"` + strings.Repeat("x", 100) + `"}}`)
	resp := th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeInvalidRequest, resp.Error.Code)
	assert.True(t, resp.ID.IsNil())

	th.send(`{"id":2,"method":"shutdown"}`)
	resp = th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeServerNotInitialized, resp.Error.Code)
}

func TestServeEOF(t *testing.T) {
	th := newHarness(t)
	require.NoError(t, th.stdinW.Close())
	assert.NoError(t, th.expectDone())
}

func TestServeBrokenFraming(t *testing.T) {
	th := newHarness(t)
	_, err := io.WriteString(th.stdinW, "Content-Type: text/plain\r\n\r\n")
	require.NoError(t, err)
	err = th.expectDone()
	assert.ErrorIs(t, err, ErrMissingContentLength)
}

func TestServeContextCancel(t *testing.T) {
	th := newHarness(t)
	th.cancel()
	assert.ErrorIs(t, th.expectDone(), context.Canceled)
}
