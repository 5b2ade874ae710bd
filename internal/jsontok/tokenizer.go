package jsontok

// Tokenizer scans a JSON byte buffer one token at a time. It holds only a
// cursor into the caller's buffer and never allocates. A NUL byte is treated
// as the end of input, as is the end of the slice.
//
// The zero value is ready for use after Reset.
type Tokenizer struct {
	buf   []byte
	pos   int
	ch    rune
	width int // 0 at end of input
}

// New returns a Tokenizer positioned at the start of buf.
func New(buf []byte) *Tokenizer {
	t := &Tokenizer{}
	t.Reset(buf)
	return t
}

// Reset re-targets the tokenizer at buf so a single value can be reused.
func (t *Tokenizer) Reset(buf []byte) {
	t.buf = buf
	t.pos = 0
	t.readChar()
}

// Pos returns the offset of the next unread byte.
func (t *Tokenizer) Pos() int { return t.pos }

// readChar loads the character at the cursor without advancing. Every byte is
// one character today; a UTF-8 decoder would only need to change this method.
func (t *Tokenizer) readChar() {
	if t.pos >= len(t.buf) || t.buf[t.pos] == 0 {
		t.ch = 0
		t.width = 0
		return
	}
	t.ch = rune(t.buf[t.pos])
	t.width = 1
}

func (t *Tokenizer) advance() {
	if t.width == 0 {
		return
	}
	t.pos += t.width
	t.readChar()
}

func (t *Tokenizer) skipWhitespace() {
	for t.ch == ' ' || t.ch == '\t' || t.ch == '\n' || t.ch == '\r' {
		t.advance()
	}
}

// Next returns the next token. Once the input is exhausted every further call
// returns an EOF token of zero length at the end position.
func (t *Tokenizer) Next() Token {
	t.skipWhitespace()

	start := t.pos
	if t.width == 0 {
		return Token{Kind: EOF, Span: Span{Start: start}}
	}

	switch t.ch {
	case '{':
		return t.single(LBrace)
	case '}':
		return t.single(RBrace)
	case '[':
		return t.single(LBracket)
	case ']':
		return t.single(RBracket)
	case ',':
		return t.single(Comma)
	case ':':
		return t.single(Colon)
	case '"':
		return t.lexString()
	case 't':
		return t.lexKeyword("true", True)
	case 'f':
		return t.lexKeyword("false", False)
	case 'n':
		return t.lexKeyword("null", Null)
	}

	if t.ch == '-' || isDigit(t.ch) {
		return t.lexNumber()
	}

	width := t.width
	t.advance()
	return Token{Kind: Illegal, Span: Span{Start: start, Len: width}}
}

func (t *Tokenizer) single(k Kind) Token {
	tok := Token{Kind: k, Span: Span{Start: t.pos, Len: t.width}}
	t.advance()
	return tok
}

// lexKeyword matches one of the literal names. A partial match yields a
// one-character Illegal token so scanning can resume right after it.
func (t *Tokenizer) lexKeyword(kw string, k Kind) Token {
	start := t.pos
	end := start + len(kw)
	if end > len(t.buf) || string(t.buf[start:end]) != kw {
		width := t.width
		t.advance()
		return Token{Kind: Illegal, Span: Span{Start: start, Len: width}}
	}
	for t.pos < end {
		t.advance()
	}
	return Token{Kind: k, Span: Span{Start: start, Len: end - start}}
}

// lexString scans from the opening quote to the matching unescaped quote. A
// backslash swallows the next character without checking the escape. Input
// that ends before the closing quote yields an Illegal token covering
// everything from the opening quote to the end.
func (t *Tokenizer) lexString() Token {
	start := t.pos
	t.advance()

	for t.width > 0 && t.ch != '"' {
		if t.ch == '\\' {
			t.advance()
		}
		t.advance()
	}

	if t.width == 0 {
		return Token{Kind: Illegal, Span: Span{Start: start, Len: t.pos - start}}
	}

	t.advance()
	return Token{Kind: String, Span: Span{Start: start, Len: t.pos - start}}
}

// lexNumber follows the JSON number grammar:
//
//	number = [ "-" ] int [ frac ] [ exp ]
//	int    = "0" / digit1-9 *digit
//	frac   = "." 1*digit
//	exp    = ("e" / "E") [ "+" / "-" ] 1*digit
func (t *Tokenizer) lexNumber() Token {
	start := t.pos

	if t.ch == '-' {
		t.advance()
		if !isDigit(t.ch) {
			return t.illegalFrom(start)
		}
	}

	if t.ch == '0' {
		t.advance()
		if isDigit(t.ch) {
			return t.illegalFrom(start)
		}
	} else {
		t.digits()
	}

	if t.ch == '.' {
		t.advance()
		if !isDigit(t.ch) {
			return t.illegalFrom(start)
		}
		t.digits()
	}

	if t.ch == 'e' || t.ch == 'E' {
		t.advance()
		if t.ch == '+' || t.ch == '-' {
			t.advance()
		}
		if !isDigit(t.ch) {
			return t.illegalFrom(start)
		}
		t.digits()
	}

	return Token{Kind: Number, Span: Span{Start: start, Len: t.pos - start}}
}

func (t *Tokenizer) digits() {
	for isDigit(t.ch) {
		t.advance()
	}
}

// illegalFrom consumes the offending character and returns an Illegal token
// spanning everything read since start.
func (t *Tokenizer) illegalFrom(start int) Token {
	t.advance()
	return Token{Kind: Illegal, Span: Span{Start: start, Len: t.pos - start}}
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }
