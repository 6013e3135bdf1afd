package parser

import (
	"noisec/internal/diag"
	"noisec/internal/source"
	"noisec/internal/token"
)

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atLineEnd() bool {
	return p.lx.Peek().EndsLine()
}

// advance съедает следующий токен и обновляет lastSpan
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

func (p *Parser) skipNewlines() {
	for p.at(token.Newline) {
		p.advance()
	}
}

// getDiagnosticSpan returns the span of the next token, or the point right
// after the last consumed token when the next token is a line end.
func (p *Parser) getDiagnosticSpan() source.Span {
	peek := p.lx.Peek()
	if peek.EndsLine() && p.lastSpan.End > 0 {
		return p.lastSpan.ZeroideToEnd()
	}
	return peek.Span
}

// expect ожидает конкретный токен. Если его нет, репортим и возвращаем (invalid,false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	sp := p.getDiagnosticSpan()
	p.report(code, diag.SevError, sp, msg)
	return token.Token{Kind: token.Invalid, Span: sp, Text: p.lx.Peek().Text}, false
}

// expectLineEnd requires a newline or EOF; anything else is reported and skipped.
func (p *Parser) expectLineEnd() {
	if p.atLineEnd() {
		if p.at(token.Newline) {
			p.advance()
		}
		return
	}
	p.err(diag.SynUnexpectedToken, "unexpected "+quote(p.lx.Peek().Text)+" at end of line")
	p.resyncLine()
}

// resyncLine skips to the start of the next line.
func (p *Parser) resyncLine() {
	for !p.atLineEnd() {
		p.advance()
	}
	if p.at(token.Newline) {
		p.advance()
	}
}

// репортует ошибку и передает текущий спан
func (p *Parser) err(code diag.Code, msg string) {
	p.report(code, diag.SevError, p.getDiagnosticSpan(), msg)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	if sev == diag.SevError && p.opts.MaxErrors != 0 && p.errs.count >= p.opts.MaxErrors {
		return
	}
	p.errs.Report(code, sev, sp, msg, nil, nil)
}

func quote(s string) string {
	return "\"" + s + "\""
}
