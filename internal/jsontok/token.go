package jsontok

// Kind classifies a token produced by the Tokenizer.
type Kind uint8

const (
	Illegal Kind = iota
	EOF

	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
	Comma    // ,
	Colon    // :

	String // "..." including both quotes
	Number
	True
	False
	Null
)

func (k Kind) String() string {
	switch k {
	case Illegal:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case LBrace:
		return "LBRACE"
	case RBrace:
		return "RBRACE"
	case LBracket:
		return "LBRACKET"
	case RBracket:
		return "RBRACKET"
	case Comma:
		return "COMMA"
	case Colon:
		return "COLON"
	case String:
		return "STRING"
	case Number:
		return "NUMBER"
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	case Null:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}

// IsScalar reports whether the kind is a complete JSON value on its own.
func (k Kind) IsScalar() bool {
	switch k {
	case String, Number, True, False, Null:
		return true
	default:
		return false
	}
}

// Token is a classified, non-owning span of the tokenized buffer. Tokens are
// plain values; they stay valid only as long as the buffer they index.
type Token struct {
	Kind Kind
	Span
}
