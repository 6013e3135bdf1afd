package token

import (
	"noisec/internal/source"
)

// Token represents a single lexical token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsEOF reports whether the token marks the end of input.
func (t Token) IsEOF() bool { return t.Kind == EOF }

// EndsLine reports whether the token terminates a pattern line.
func (t Token) EndsLine() bool { return t.Kind == Newline || t.Kind == EOF }
