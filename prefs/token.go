package prefs

import "fmt"

// TokenKind discriminates the scalar carried by a Token.
type TokenKind uint8

const (
	TokenNull TokenKind = iota
	TokenBool
	TokenInteger
	TokenFloat
	TokenString
)

// String returns the token kind's name.
func (k TokenKind) String() string {
	switch k {
	case TokenNull:
		return "null"
	case TokenBool:
		return "boolean"
	case TokenInteger:
		return "integer"
	case TokenFloat:
		return "float"
	case TokenString:
		return "string"
	default:
		return "unknown"
	}
}

// Token is a single scalar read from or written to a text format. Text holds
// the literal for numbers ("42", "1.5e3"), "true"/"false" for booleans and
// the unquoted content for strings. Formats produce and consume tokens; the
// value types decode and encode them.
type Token struct {
	Kind TokenKind
	Text string
}

// NullToken is the token for an unset value.
var NullToken = Token{Kind: TokenNull}

// StringToken creates a string token.
func StringToken(s string) Token {
	return Token{Kind: TokenString, Text: s}
}

// IsNull reports whether the token is null.
func (t Token) IsNull() bool {
	return t.Kind == TokenNull
}

// String implements fmt.Stringer for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case TokenNull:
		return "null"
	case TokenString:
		return fmt.Sprintf("%q", t.Text)
	default:
		return t.Text
	}
}
