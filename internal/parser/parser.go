package parser

import (
	"fmt"

	"noisec/internal/diag"
	"noisec/internal/lexer"
	"noisec/internal/pattern"
	"noisec/internal/source"
	"noisec/internal/token"
)

type Options struct {
	// MaxErrors stops reporting after this many errors; 0 means unlimited.
	MaxErrors uint
	Reporter  diag.Reporter
}

// Parser: состояние парсера на один файл
type Parser struct {
	lx       *lexer.Lexer
	fs       *source.FileSet
	file     *source.File
	opts     Options
	errs     *firstError
	lastSpan source.Span

	spec      pattern.Spec
	separator bool // '...' seen
}

// ParseFile parses one pattern file. Every diagnostic goes to opts.Reporter;
// on any error the result is nil and the error is a *SyntaxError.
func ParseFile(fs *source.FileSet, id source.FileID, opts Options) (*pattern.Spec, error) {
	errs := &firstError{next: opts.Reporter}
	file := fs.Get(id)
	p := Parser{
		lx:   lexer.New(file, lexer.Options{Reporter: errs}),
		fs:   fs,
		file: file,
		opts: opts,
		errs: errs,
	}
	p.parsePattern()
	if errs.first != nil {
		return nil, newSyntaxError(fs, errs.first)
	}
	spec := p.spec
	return &spec, nil
}

// ParseString is a convenience wrapper over an in-memory file.
func ParseString(name, text string) (*pattern.Spec, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(text))
	return ParseFile(fs, id, Options{})
}

func (p *Parser) parsePattern() {
	p.skipNewlines()
	if !p.parseNameLine() {
		return
	}
	for {
		p.skipNewlines()
		if p.at(token.EOF) {
			break
		}
		if !p.parseLine() {
			p.resyncLine()
			continue
		}
		p.expectLineEnd()
	}
	p.finish()
}

// parseNameLine reads "NAME:".
func (p *Parser) parseNameLine() bool {
	if !p.at(token.Ident) {
		p.err(diag.SynMissingName, fmt.Sprintf("expected pattern name, got %q", p.lx.Peek().Text))
		return false
	}
	tok := p.advance()
	base, mods, ok := pattern.ParseName(tok.Text)
	if !ok {
		p.report(diag.SynBadPatternName, diag.SevError, tok.Span, fmt.Sprintf("invalid pattern name %q", tok.Text))
	}
	p.spec.Name = tok.Text
	p.spec.Base = base
	p.spec.Modifiers = mods
	p.spec.NameSpan = tok.Span
	if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' after pattern name"); !ok {
		p.resyncLine()
		return true
	}
	p.expectLineEnd()
	return true
}

// parseLine dispatches on the first token of a line.
func (p *Parser) parseLine() bool {
	switch tok := p.lx.Peek(); tok.Kind {
	case token.Ellipsis:
		p.advance()
		p.parseSeparator(tok.Span)
		return true
	case token.Arrow, token.LArrow:
		return p.parseArrowLine()
	case token.KwInitiator, token.KwResponder:
		return p.parseRoleLine()
	default:
		p.err(diag.SynUnexpectedToken, fmt.Sprintf("expected '->', '<-', '...' or a role, got %q", tok.Text))
		return false
	}
}

// parseArrowLine reads "-> e, es" or a bare transport arrow.
func (p *Parser) parseArrowLine() bool {
	arrow := p.advance()
	sender := pattern.Initiator
	if arrow.Kind == token.LArrow {
		sender = pattern.Responder
	}
	msg := pattern.Message{Sender: sender, Receiver: sender.Peer(), Span: arrow.Span}
	if p.atLineEnd() {
		msg.Transport = true
		p.spec.Messages = append(p.spec.Messages, msg)
		return true
	}
	toks, spans, ok := p.parseTokenList()
	if !ok {
		return false
	}
	msg.Tokens, msg.TokenSpans = toks, spans
	msg.Span = arrow.Span.Cover(p.lastSpan)
	p.spec.Messages = append(p.spec.Messages, msg)
	return true
}

// parseRoleLine reads "initiator -> responder: e, es" or "responder: s".
func (p *Parser) parseRoleLine() bool {
	first := p.advance()
	sender := roleOf(first.Kind)

	if p.at(token.Colon) {
		p.advance()
		if p.started() {
			p.report(diag.SynPreMessageAfterStart, diag.SevError, first.Span, "pre-messages must precede the first message")
			return false
		}
		toks, spans, ok := p.parseTokenList()
		if !ok {
			return false
		}
		p.addPreMessage(sender, toks, spans, first.Span.Cover(p.lastSpan))
		return true
	}

	if _, ok := p.expect(token.Arrow, diag.SynUnexpectedToken, "expected ':' or '->' after role"); !ok {
		return false
	}
	recvTok := p.lx.Peek()
	if !recvTok.Kind.IsRole() {
		p.err(diag.SynBadRole, fmt.Sprintf("expected 'initiator' or 'responder', got %q", recvTok.Text))
		return false
	}
	p.advance()
	receiver := roleOf(recvTok.Kind)
	if receiver == sender {
		p.report(diag.SynSameRole, diag.SevError, first.Span.Cover(recvTok.Span),
			fmt.Sprintf("%s cannot send to itself", sender))
		return false
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' before token list"); !ok {
		return false
	}
	if p.atLineEnd() {
		p.err(diag.SynEmptyTokenList, "empty token list")
		return false
	}
	toks, spans, ok := p.parseTokenList()
	if !ok {
		return false
	}
	p.spec.Messages = append(p.spec.Messages, pattern.Message{
		Sender:     sender,
		Receiver:   receiver,
		Tokens:     toks,
		TokenSpans: spans,
		Span:       first.Span.Cover(p.lastSpan),
	})
	return true
}

// parseTokenList reads TOKEN (',' TOKEN)*.
func (p *Parser) parseTokenList() ([]pattern.Token, []source.Span, bool) {
	var (
		toks  []pattern.Token
		spans []source.Span
		ok    = true
	)
	for {
		tok := p.lx.Peek()
		if tok.Kind != token.Ident {
			p.err(diag.SynExpectToken, fmt.Sprintf("expected handshake token, got %q", tok.Text))
			return nil, nil, false
		}
		p.advance()
		t, known := pattern.LookupToken(tok.Text)
		if !known {
			p.report(diag.SynUnknownToken, diag.SevError, tok.Span, fmt.Sprintf("unknown token %q", tok.Text))
			ok = false
		}
		toks = append(toks, t)
		spans = append(spans, tok.Span)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	return toks, spans, ok
}

// parseSeparator turns every arrow line read so far into a pre-message.
func (p *Parser) parseSeparator(sp source.Span) {
	if p.separator {
		p.report(diag.SynDuplicateSeparator, diag.SevError, sp, "duplicate '...' separator")
		return
	}
	p.separator = true
	pending := p.spec.Messages
	p.spec.Messages = nil
	for i := range pending {
		m := &pending[i]
		if len(m.Tokens) == 0 {
			p.report(diag.SynEmptyTokenList, diag.SevError, m.Span, "empty pre-message")
			continue
		}
		p.addPreMessage(m.Sender, m.Tokens, m.TokenSpans, m.Span)
	}
}

func (p *Parser) addPreMessage(role pattern.Role, toks []pattern.Token, spans []source.Span, sp source.Span) {
	if _, dup := p.spec.PreMessage(role); dup {
		p.report(diag.SynDuplicatePreMessage, diag.SevError, sp, fmt.Sprintf("duplicate pre-message for %s", role))
		return
	}
	seen := make(map[pattern.Token]bool, len(toks))
	for i, t := range toks {
		if !t.IsKey() {
			p.report(diag.SynPreMessageToken, diag.SevError, spans[i], fmt.Sprintf("pre-message cannot carry %q", t))
			return
		}
		if seen[t] {
			p.report(diag.SynPreMessageToken, diag.SevError, spans[i], fmt.Sprintf("pre-message repeats %q", t))
			return
		}
		seen[t] = true
	}
	p.spec.PreMessages = append(p.spec.PreMessages, pattern.PreMessage{Role: role, Tokens: toks, Span: sp})
}

// started reports whether any message line has been read.
func (p *Parser) started() bool {
	return len(p.spec.Messages) > 0
}

// finish validates the message list as a whole.
func (p *Parser) finish() {
	if p.errs.first != nil {
		return
	}
	msgs := p.spec.Messages
	last := -1
	for i := range msgs {
		if !msgs[i].Transport {
			last = i
		}
	}
	if last < 0 {
		sp := p.spec.NameSpan
		if len(msgs) > 0 {
			sp = msgs[0].Span
		}
		p.report(diag.SynNoMessages, diag.SevError, sp, fmt.Sprintf("pattern %s has no handshake messages", p.spec.Name))
		return
	}
	for i := 0; i < last; i++ {
		if msgs[i].Transport {
			p.report(diag.SynEmptyTokenList, diag.SevError, msgs[i].Span,
				"empty token list (bare arrows are only allowed after the handshake)")
		}
	}
	if len(msgs) > pattern.MaxMessages {
		p.report(diag.SynTooManyMessages, diag.SevError, msgs[pattern.MaxMessages].Span,
			fmt.Sprintf("pattern has %d messages, at most %d are supported", len(msgs), pattern.MaxMessages))
	}
}

func roleOf(k token.Kind) pattern.Role {
	if k == token.KwResponder {
		return pattern.Responder
	}
	return pattern.Initiator
}
