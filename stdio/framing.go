package stdio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/valyala/bytebufferpool"
)

// DefaultMaxContentLength bounds the body of a single frame.
const DefaultMaxContentLength = 8 << 20

var (
	ErrMissingContentLength = errors.New("stdio: missing Content-Length header")
	ErrInvalidContentLength = errors.New("stdio: invalid Content-Length header")
	ErrInvalidHeader        = errors.New("stdio: invalid header line")
	ErrFrameTooLarge        = errors.New("stdio: frame exceeds maximum content length")
)

var contentLengthHeader = []byte("Content-Length")

// FrameReader reads base-protocol frames: a block of CRLF-terminated
// "Name: value" header lines, an empty line, then exactly Content-Length
// bytes of body.
type FrameReader struct {
	r   *bufio.Reader
	max int
	buf []byte
}

// NewFrameReader wraps r. A maxLen of zero or less selects
// DefaultMaxContentLength.
func NewFrameReader(r io.Reader, maxLen int) *FrameReader {
	if maxLen <= 0 {
		maxLen = DefaultMaxContentLength
	}
	return &FrameReader{r: bufio.NewReader(r), max: maxLen}
}

// Next returns the body of the next frame. The returned slice is reused by
// the following call to Next.
//
// Next returns io.EOF only at a clean frame boundary. A frame larger than the
// configured maximum is consumed and reported with ErrFrameTooLarge, leaving
// the reader positioned at the next frame.
func (fr *FrameReader) Next() ([]byte, error) {
	length := -1
	for started := false; ; started = true {
		line, err := fr.r.ReadSlice('\n')
		if err != nil {
			switch {
			case errors.Is(err, bufio.ErrBufferFull):
				return nil, fmt.Errorf("%w: line exceeds %d bytes", ErrInvalidHeader, fr.r.Size())
			case errors.Is(err, io.EOF) && !started && len(line) == 0:
				return nil, io.EOF
			case errors.Is(err, io.EOF):
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			break
		}

		name, value, ok := bytes.Cut(line, []byte{':'})
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, line)
		}
		// Content-Type and unknown headers are accepted and ignored.
		if !bytes.EqualFold(bytes.TrimSpace(name), contentLengthHeader) {
			continue
		}
		n, err := parseContentLength(bytes.TrimSpace(value))
		if err != nil {
			return nil, err
		}
		length = n
	}

	if length < 0 {
		return nil, ErrMissingContentLength
	}

	if length > fr.max {
		if _, err := fr.r.Discard(length); err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, fr.max)
	}

	if cap(fr.buf) < length {
		fr.buf = make([]byte, length)
	}
	body := fr.buf[:length]
	if _, err := io.ReadFull(fr.r, body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}

// FrameWriter writes JSON values as base-protocol frames. It is safe for
// concurrent use.
type FrameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// Write encodes v and emits the header and body with a single Write call on
// the underlying writer.
func (fw *FrameWriter) Write(v any) error {
	body := bytebufferpool.Get()
	defer bytebufferpool.Put(body)

	enc := json.NewEncoder(body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	payload := bytes.TrimSuffix(body.B, []byte{'\n'})

	frame := bytebufferpool.Get()
	defer bytebufferpool.Put(frame)

	frame.B = append(frame.B, "Content-Length: "...)
	frame.B = strconv.AppendInt(frame.B, int64(len(payload)), 10)
	frame.B = append(frame.B, "\r\n\r\n"...)
	frame.B = append(frame.B, payload...)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, err := fw.w.Write(frame.B); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// framingReason labels a FrameReader error for metrics.
func framingReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingContentLength):
		return "missing_content_length"
	case errors.Is(err, ErrInvalidContentLength):
		return "invalid_content_length"
	case errors.Is(err, ErrInvalidHeader):
		return "invalid_header"
	case errors.Is(err, ErrFrameTooLarge):
		return "frame_too_large"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "unexpected_eof"
	default:
		return "other"
	}
}

// parseContentLength accepts a plain decimal without sign or leading zeros.
func parseContentLength(v []byte) (int, error) {
	if len(v) == 0 || (v[0] == '0' && len(v) > 1) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidContentLength, v)
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidContentLength, v)
		}
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidContentLength, v)
	}
	return n, nil
}
