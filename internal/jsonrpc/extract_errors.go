package jsonrpc

import (
	"errors"
	"fmt"

	"github.com/ggoodman/solbot-lsp/internal/jsontok"
)

var (
	// ErrLexIllegal indicates an unrecognized character, a malformed number
	// or an unterminated string.
	ErrLexIllegal = errors.New("illegal token")
	// ErrNotAnObject indicates the message does not start with '{'.
	ErrNotAnObject = errors.New("message is not a JSON object")
	// ErrMalformedKey indicates an object member did not start with a string key.
	ErrMalformedKey = errors.New("expected string key")
	// ErrMissingColon indicates a key was not followed by ':'.
	ErrMissingColon = errors.New("expected ':' after key")
	// ErrUnexpectedToken indicates a token that cannot appear at its position.
	ErrUnexpectedToken = errors.New("unexpected token")
	// ErrUnterminatedValue indicates input ended inside an object or array.
	ErrUnterminatedValue = errors.New("unterminated value")
	// ErrTypeMismatch indicates "method" or "id" holds a value of the wrong type.
	ErrTypeMismatch = errors.New("field has wrong type")
)

// SyntaxError describes why Extract rejected a message. Err is one of the
// sentinel errors above and can be matched with errors.Is.
type SyntaxError struct {
	Err    error
	Offset int
	Token  jsontok.Token
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at offset %d (got %s)", e.Err, e.Offset, e.Token.Kind)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// ErrorCodeFor maps an extraction failure to the JSON-RPC error code the
// peer should receive. Wrong field types make the message an invalid
// request; everything else means the JSON itself could not be read.
func ErrorCodeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrTypeMismatch):
		return ErrorCodeInvalidRequest
	case err != nil:
		return ErrorCodeParseError
	default:
		return 0
	}
}

// Reason returns a short, stable label for an extraction failure, suitable
// for log attributes and metric labels.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrLexIllegal):
		return "lex_illegal"
	case errors.Is(err, ErrNotAnObject):
		return "not_an_object"
	case errors.Is(err, ErrMalformedKey):
		return "malformed_key"
	case errors.Is(err, ErrMissingColon):
		return "missing_colon"
	case errors.Is(err, ErrUnexpectedToken):
		return "unexpected_token"
	case errors.Is(err, ErrUnterminatedValue):
		return "unterminated_value"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	default:
		return "other"
	}
}
