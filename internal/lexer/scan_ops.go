package lexer

import (
	"fmt"
	"unicode/utf8"

	"noisec/internal/diag"
	"noisec/internal/token"
)

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	b := lx.cursor.Bump()

	kind := token.Invalid
	switch b {
	case ':':
		kind = token.Colon
	case ',':
		kind = token.Comma
	case '-':
		if lx.cursor.Eat('>') {
			kind = token.Arrow
		} else {
			lx.report(diag.LexBadArrow, lx.cursor.SpanFrom(start), "expected '->'")
		}
	case '<':
		if lx.cursor.Eat('-') {
			kind = token.LArrow
		} else {
			lx.report(diag.LexBadArrow, lx.cursor.SpanFrom(start), "expected '<-'")
		}
	case '.':
		n := 1
		for lx.cursor.Eat('.') {
			n++
		}
		if n == 3 {
			kind = token.Ellipsis
		} else {
			lx.report(diag.LexBadEllipsis, lx.cursor.SpanFrom(start), fmt.Sprintf("expected '...', found %d dots", n))
		}
	default:
		if b >= utf8.RuneSelf {
			// целиком съедаем многобайтовую руну
			lx.cursor.Reset(start)
			_, size := utf8.DecodeRune(lx.file.Content[lx.cursor.Off:])
			for range size {
				lx.cursor.Bump()
			}
		}
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.LexUnknownChar, sp, fmt.Sprintf("unknown character %q", lx.text(sp)))
	}

	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}
