package lexer

import (
	"noisec/internal/token"
)

// collectLeadingTrivia собирает пробелы и комментарии перед значимым токеном.
// '\n' is not trivia: it ends a pattern line.
func (lx *Lexer) collectLeadingTrivia() {
	lx.hold = lx.hold[:0]
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		if b == ' ' || b == '\t' || b == '\r' {
			for {
				b2 := lx.cursor.Peek()
				if b2 != ' ' && b2 != '\t' && b2 != '\r' {
					break
				}
				lx.cursor.Bump()
			}
			sp := lx.cursor.SpanFrom(start)
			lx.hold = append(lx.hold, token.Trivia{Kind: token.TriviaSpace, Span: sp, Text: lx.text(sp)})
			continue
		}

		if lx.atComment() {
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			sp := lx.cursor.SpanFrom(start)
			lx.hold = append(lx.hold, token.Trivia{Kind: token.TriviaLineComment, Span: sp, Text: lx.text(sp)})
			continue
		}
		break
	}
}

// atComment reports '//' or '#' at the cursor.
func (lx *Lexer) atComment() bool {
	if lx.cursor.Peek() == '#' {
		return true
	}
	b0, b1, ok := lx.cursor.Peek2()
	return ok && b0 == '/' && b1 == '/'
}

// scanNewlines folds a run of blank and comment-only lines into one Newline.
func (lx *Lexer) scanNewlines() token.Token {
	start := lx.cursor.Mark()
	for lx.cursor.Eat('\n') {
		end := lx.cursor.Mark()
		lx.skipSpaceAndComment()
		if lx.cursor.Peek() != '\n' {
			// trivia before the next significant token belongs to that token
			lx.cursor.Reset(end)
			break
		}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.Newline, Span: sp, Text: lx.text(sp)}
}

func (lx *Lexer) skipSpaceAndComment() {
	for !lx.cursor.EOF() {
		switch b := lx.cursor.Peek(); {
		case b == ' ' || b == '\t' || b == '\r':
			lx.cursor.Bump()
		case lx.atComment():
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		default:
			return
		}
	}
}
