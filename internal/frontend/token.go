package frontend

import "fmt"

// Kind differentiates the token categories the lexer emits. None is a
// sentinel meaning "no token matched"; Invalid carries a diagnostic message
// in Token.Text.
type Kind int

const (
	None Kind = iota
	EOF
	Identifier
	Keyword
	Punctuator
	NumericLiteral
	StringLiteral
	Comment
	Invalid
)

var kindNames = [...]string{
	"None", "EOF", "Identifier", "Keyword", "Punctuator", "NumericLiteral", "StringLiteral", "Comment", "Invalid",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Token is a single lexeme and its position in the source stream.
type Token struct {
	Line   int    // 1-based line number.
	Column int    // 1-based column of the first rune on Line.
	Offset int    // byte offset of the first rune in the source string.
	Text   string // Exact source slice of the token (or the diagnostic message, for Invalid).
	Kind   Kind
}

func (t Token) String() string {
	if len(t.Text) > 12 {
		return fmt.Sprintf("%.12q... (%s %d:%d)", t.Text, t.Kind, t.Line, t.Column)
	}
	return fmt.Sprintf("%q (%s %d:%d)", t.Text, t.Kind, t.Line, t.Column)
}

// Is reports whether the token is a Keyword or Punctuator with the given
// literal text. Useful for grammar dispatch without re-deriving the kind.
func (t Token) Is(text string) bool {
	return (t.Kind == Keyword || t.Kind == Punctuator) && t.Text == text
}
