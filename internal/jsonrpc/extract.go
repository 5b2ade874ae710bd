package jsonrpc

import (
	"math"

	"github.com/ggoodman/solbot-lsp/internal/jsontok"
)

// Message holds the three fields Extract pulls out of a request object.
//
// Method and Params are sub-slices of the buffer passed to Extract; nothing is
// copied. They are only valid while that buffer is, so a Message must be
// consumed before the buffer is reused. A nil Method or Params means the
// member was absent.
type Message struct {
	HasID bool
	ID    int32
	// Method is the method name without its surrounding quotes. Escapes are
	// not decoded.
	Method []byte
	// Params is the raw, unparsed JSON text of the params value, byte for
	// byte as it appeared in the input.
	Params []byte
}

// IsNotification reports whether the message carries no id.
func (m Message) IsNotification() bool { return !m.HasID }

// RequestID returns the message id for use in a response, or nil for a
// notification.
func (m Message) RequestID() *RequestID {
	if !m.HasID {
		return nil
	}
	return NewRequestID(m.ID)
}

// ExtractOptions selects how Extract treats a known member whose value has
// the wrong type.
type ExtractOptions struct {
	// Lenient skips a wrongly typed "method" or "id" value and leaves the
	// field absent instead of failing with ErrTypeMismatch.
	Lenient bool
}

// Extract parses buf as a single flat JSON object and captures "method",
// "id" and "params" without building a document tree. Unknown members and
// the params value are skipped by counting nesting depth. When a key repeats,
// the last stored occurrence wins. Content after the closing brace is not
// examined.
//
// Extract does not allocate on success. On failure it returns a
// *SyntaxError and no partial message.
func Extract(buf []byte) (Message, error) {
	return ExtractWith(buf, ExtractOptions{})
}

// ExtractWith is Extract with an explicit type-mismatch policy.
func ExtractWith(buf []byte, opts ExtractOptions) (Message, error) {
	var e extractor
	e.init(buf, opts)

	var msg Message
	if err := e.object(&msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// extractor walks the token stream with one token of lookahead.
type extractor struct {
	tok     jsontok.Tokenizer
	buf     []byte
	cur     jsontok.Token
	peek    jsontok.Token
	lenient bool
}

func (e *extractor) init(buf []byte, opts ExtractOptions) {
	e.buf = buf
	e.lenient = opts.Lenient
	e.tok.Reset(buf)
	e.advance()
	e.advance()
}

func (e *extractor) advance() {
	e.cur = e.peek
	e.peek = e.tok.Next()
}

// fail reports err at the current token. A lexical error at that position
// takes precedence over the structural expectation.
func (e *extractor) fail(err error) error {
	if e.cur.Kind == jsontok.Illegal {
		err = ErrLexIllegal
	}
	return &SyntaxError{Err: err, Offset: e.cur.Start, Token: e.cur}
}

func (e *extractor) object(msg *Message) error {
	if e.cur.Kind != jsontok.LBrace {
		return e.fail(ErrNotAnObject)
	}
	e.advance()

	for {
		if e.cur.Kind != jsontok.String {
			return e.fail(ErrMalformedKey)
		}
		key := e.cur.Span
		e.advance()

		if e.cur.Kind != jsontok.Colon {
			return e.fail(ErrMissingColon)
		}
		e.advance()

		var err error
		switch {
		case key.EqualString(e.buf, `"method"`):
			err = e.method(msg)
		case key.EqualString(e.buf, `"id"`):
			err = e.id(msg)
		case key.EqualString(e.buf, `"params"`):
			var span jsontok.Span
			if span, err = e.skip(); err == nil {
				msg.Params = span.Bytes(e.buf)
			}
		default:
			_, err = e.skip()
		}
		if err != nil {
			return err
		}

		switch e.cur.Kind {
		case jsontok.Comma:
			e.advance()
		case jsontok.RBrace:
			return nil
		default:
			return e.fail(ErrUnexpectedToken)
		}
	}
}

func (e *extractor) method(msg *Message) error {
	if e.cur.Kind != jsontok.String {
		return e.mismatch()
	}
	msg.Method = e.cur.Inner().Bytes(e.buf)
	e.advance()
	return nil
}

func (e *extractor) id(msg *Message) error {
	if e.cur.Kind != jsontok.Number {
		return e.mismatch()
	}
	v, ok := parseInt32(e.cur.Bytes(e.buf))
	if !ok {
		return e.mismatch()
	}
	msg.ID = v
	msg.HasID = true
	e.advance()
	return nil
}

// mismatch applies the type-mismatch policy to the value at the cursor.
func (e *extractor) mismatch() error {
	if e.cur.Kind == jsontok.Illegal || !e.lenient {
		return e.fail(ErrTypeMismatch)
	}
	_, err := e.skip()
	return err
}

// skip advances past one complete value starting at the current token and
// returns the span from the first byte of its first token to the last byte
// of its last token. Nesting is tracked with a counter only; the kinds of the
// brackets are not matched against each other.
func (e *extractor) skip() (jsontok.Span, error) {
	first := e.cur
	switch {
	case first.Kind.IsScalar():
		e.advance()
		return first.Span, nil
	case first.Kind == jsontok.LBrace, first.Kind == jsontok.LBracket:
	default:
		return jsontok.Span{}, e.fail(ErrUnexpectedToken)
	}

	depth := 1
	for {
		e.advance()
		switch e.cur.Kind {
		case jsontok.LBrace, jsontok.LBracket:
			depth++
		case jsontok.RBrace, jsontok.RBracket:
			depth--
			if depth == 0 {
				end := e.cur.End()
				e.advance()
				return jsontok.Span{Start: first.Start, Len: end - first.Start}, nil
			}
		case jsontok.EOF:
			return jsontok.Span{}, e.fail(ErrUnterminatedValue)
		case jsontok.Illegal:
			return jsontok.Span{}, e.fail(ErrLexIllegal)
		}
	}
}

// parseInt32 parses a JSON integer literal. Fractions, exponents and values
// outside the int32 range are rejected.
func parseInt32(b []byte) (int32, bool) {
	neg := false
	if len(b) > 0 && b[0] == '-' {
		neg = true
		b = b[1:]
	}
	if len(b) == 0 {
		return 0, false
	}

	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
		if n > math.MaxInt32+1 {
			return 0, false
		}
	}
	if neg {
		n = -n
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}
