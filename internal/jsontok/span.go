package jsontok

// Span is a borrowed (start, length) view into a buffer owned by the caller.
// A Span never copies or owns memory; it is only meaningful together with the
// buffer it was produced from, and two spans may alias the same bytes.
type Span struct {
	Start int
	Len   int
}

// End returns the offset one past the last byte of the span.
func (s Span) End() int { return s.Start + s.Len }

// Valid reports whether the span lies entirely within buf.
func (s Span) Valid(buf []byte) bool {
	return s.Start >= 0 && s.Len >= 0 && s.End() <= len(buf)
}

// Bytes returns the bytes of buf covered by the span without copying. The
// returned slice has its capacity clipped so appends cannot clobber the
// caller's buffer. Bytes returns nil when the span is out of bounds.
func (s Span) Bytes(buf []byte) []byte {
	if !s.Valid(buf) {
		return nil
	}
	return buf[s.Start:s.End():s.End()]
}

// Equal reports whether two spans over the same buffer hold identical bytes.
func (s Span) Equal(buf []byte, other Span) bool {
	if s.Len != other.Len || !s.Valid(buf) || !other.Valid(buf) {
		return false
	}
	return string(s.Bytes(buf)) == string(other.Bytes(buf))
}

// EqualString reports whether the span's bytes equal lit exactly.
func (s Span) EqualString(buf []byte, lit string) bool {
	if s.Len != len(lit) || !s.Valid(buf) {
		return false
	}
	return string(s.Bytes(buf)) == lit
}

// Inner strips one byte from each end of the span, turning the span of a
// quoted string token into the span of its contents.
func (s Span) Inner() Span {
	if s.Len < 2 {
		return Span{Start: s.Start, Len: 0}
	}
	return Span{Start: s.Start + 1, Len: s.Len - 2}
}
