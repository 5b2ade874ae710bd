package stdio

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggoodman/solbot-lsp/internal/jsonrpc"
)

func frame(body string) string {
	return "Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
}

func TestFrameReaderBackToBack(t *testing.T) {
	in := frame(`{"a":1}`) + frame(`{"b":22}`) + frame(``)
	fr := NewFrameReader(strings.NewReader(in), 0)

	body, err := fr.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(body))

	body, err = fr.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"b":22}`, string(body))

	body, err = fr.Next()
	require.NoError(t, err)
	assert.Empty(t, body)

	_, err = fr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameReaderHeaders(t *testing.T) {
	in := "content-length: 2\r\nContent-Type: application/vscode-jsonrpc; charset=utf-8\r\n\r\n{}" +
		"Content-Length:3\n\n[1]"
	fr := NewFrameReader(strings.NewReader(in), 0)

	body, err := fr.Next()
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(body))

	body, err = fr.Next()
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(body))
}

func TestFrameReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"missing content length", "Content-Type: x\r\n\r\n{}", ErrMissingContentLength},
		{"blank header block", "\r\n{}", ErrMissingContentLength},
		{"negative length", "Content-Length: -1\r\n\r\n", ErrInvalidContentLength},
		{"non numeric length", "Content-Length: ten\r\n\r\n", ErrInvalidContentLength},
		{"signed length", "Content-Length: +2\r\n\r\n{}", ErrInvalidContentLength},
		{"leading zero", "Content-Length: 02\r\n\r\n{}", ErrInvalidContentLength},
		{"embedded space", "Content-Length: 1 2\r\n\r\n", ErrInvalidContentLength},
		{"empty length", "Content-Length:\r\n\r\n", ErrInvalidContentLength},
		{"overflowing length", "Content-Length: 99999999999999999999\r\n\r\n", ErrInvalidContentLength},
		{"header without colon", "Content-Length 2\r\n\r\n{}", ErrInvalidHeader},
		{"truncated header", "Content-Length: 2\r\n", io.ErrUnexpectedEOF},
		{"truncated body", "Content-Length: 10\r\n\r\n{}", io.ErrUnexpectedEOF},
		{"partial header line", "Content-Len", io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFrameReader(strings.NewReader(tt.in), 0).Next()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFrameReaderSkipsOversizedFrame(t *testing.T) {
	in := frame(strings.Repeat("x", 64)) + frame(`{}`)
	fr := NewFrameReader(strings.NewReader(in), 16)

	_, err := fr.Next()
	require.ErrorIs(t, err, ErrFrameTooLarge)

	body, err := fr.Next()
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(body))
}

func TestFrameReaderReusesBuffer(t *testing.T) {
	fr := NewFrameReader(strings.NewReader(frame(`{"a":1}`)+frame(`{"b":2}`)), 0)

	first, err := fr.Next()
	require.NoError(t, err)
	second, err := fr.Next()
	require.NoError(t, err)
	assert.Same(t, &first[0], &second[0])
}

func TestFrameWriter(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)

	resp := jsonrpc.NewErrorResponse(jsonrpc.NewRequestID(3), jsonrpc.ErrorCodeMethodNotFound, "method not found: a<b>", nil)
	require.NoError(t, fw.Write(resp))

	body := `{"jsonrpc":"2.0","error":{"code":-32601,"message":"method not found: a<b>"},"id":3}`
	assert.Equal(t, frame(body), buf.String())

	// The output is readable by FrameReader.
	got, err := NewFrameReader(&buf, 0).Next()
	require.NoError(t, err)
	assert.JSONEq(t, body, string(got))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("boom") }

func TestFrameWriterErrors(t *testing.T) {
	assert.Error(t, NewFrameWriter(io.Discard).Write(make(chan int)))
	assert.ErrorContains(t, NewFrameWriter(failingWriter{}).Write(struct{}{}), "boom")
}

func TestFramingReason(t *testing.T) {
	assert.Equal(t, "frame_too_large", framingReason(ErrFrameTooLarge))
	assert.Equal(t, "unexpected_eof", framingReason(io.ErrUnexpectedEOF))
	assert.Equal(t, "other", framingReason(errors.New("x")))
}
