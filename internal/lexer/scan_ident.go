package lexer

import (
	"noisec/internal/token"
)

// scanIdentOrKeyword reads [A-Za-z0-9_+]+. '+' joins pattern modifiers
// (NNpsk0+psk2) so it is part of the identifier.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

func isIdentStartByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || b == '_' || b == '+'
}
