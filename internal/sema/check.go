package sema

import (
	"fmt"

	"noisec/internal/diag"
	"noisec/internal/pattern"
	"noisec/internal/source"
)

// Options configure an analysis pass.
type Options struct {
	Reporter diag.Reporter
}

// Analyze walks the pattern token by token and builds the key-state IR.
// Every violation is reported; the returned error wraps the first one.
// Warnings never fail the analysis.
func Analyze(spec *pattern.Spec, opts Options) (*IR, error) {
	a := analyzer{
		spec:     spec,
		reporter: diag.NewDedupReporter(opts.Reporter),
		usesPSK:  spec.UsesPSK(),
		pskUsed:  make([]bool, len(spec.Modifiers)),
	}
	ir := a.run()
	if a.first != nil {
		return nil, a.first
	}
	return ir, nil
}

type analyzer struct {
	spec     *pattern.Spec
	reporter diag.Reporter
	first    *CausalityError

	usesPSK bool
	pskUsed []bool

	know Knowledge
	// keyed is true once any MixKey happened; from then on payloads are encrypted.
	keyed bool
	// pskDone is true once a psk token was processed by both parties.
	pskDone bool
}

func (a *analyzer) run() *IR {
	ir := &IR{
		Pattern:      a.spec,
		ProtocolName: fmt.Sprintf("Noise_%s_%s", a.spec.Name, Suite),
		UsesPSK:      a.usesPSK,
		OneWay:       a.spec.OneWay(),
	}

	// initiator's pre-message keys are hashed first
	for _, role := range []pattern.Role{pattern.Initiator, pattern.Responder} {
		pm, ok := a.spec.PreMessage(role)
		if !ok {
			continue
		}
		for _, t := range pm.Tokens {
			a.learn(role, t)
			ir.PreKeys = append(ir.PreKeys, PreKey{Role: role, Token: t, MixKey: t == pattern.E && a.usesPSK})
		}
	}
	ir.Initial = a.know

	final := a.spec.HandshakeLen() - 1
	if final < 0 {
		a.fail(-1, -1, 0, diag.SemaNoHandshake, a.spec.NameSpan, "pattern has no handshake messages")
	}
	ir.Messages = make([]Message, len(a.spec.Messages))
	for i := range a.spec.Messages {
		ir.Messages[i] = a.message(i, i == final)
	}

	for i, m := range a.spec.Modifiers {
		if m.Kind == pattern.ModPSK && !a.pskUsed[i] {
			a.fail(-1, -1, 0, diag.SemaPskModifierUnused, a.spec.NameSpan,
				fmt.Sprintf("modifier %s has no matching psk token", m.Text))
		}
	}
	return ir
}

func (a *analyzer) message(i int, final bool) Message {
	src := &a.spec.Messages[i]
	m := Message{
		Index:       i,
		Letter:      pattern.Letter(i),
		Sender:      src.Sender,
		Receiver:    src.Receiver,
		Transport:   src.Transport,
		KnownBefore: a.know,
		Final:       final,
		Span:        src.Span,
	}
	a.checkDirection(i, src)

	if src.Transport {
		m.KnownAfter = a.know
		m.PayloadEncrypted = true
		return m
	}

	m.Steps = make([]Step, len(src.Tokens))
	for j := range src.Tokens {
		m.Steps[j] = a.step(i, j, src)
		m.MixedKey = m.MixedKey || m.Steps[j].MixKey
	}
	m.MixedHash = true
	m.PayloadEncrypted = a.keyed
	if a.keyed {
		a.checkEncrypt(i, src.Sender, src.Span)
	}
	m.KnownAfter = a.know
	return m
}

// step applies token j of message i.
func (a *analyzer) step(i, j int, src *pattern.Message) Step {
	t := src.Tokens[j]
	sp := src.TokenSpan(j)
	sender, receiver := src.Sender, src.Receiver
	st := Step{Token: t, Span: sp}

	switch t {
	case pattern.E:
		if a.know[sender].Has(LocalEphemeral) {
			a.fail(i, j, t, diag.SemaDuplicateEphemeral, sp,
				fmt.Sprintf("%s already has an ephemeral key", sender))
		}
		a.learn(sender, t)
		st.MixHash = true
		if a.usesPSK {
			st.MixKey = true
			a.keyed = true
		}

	case pattern.S:
		if a.know[receiver].Has(RemoteStatic) {
			a.fail(i, j, t, diag.SemaDuplicateStatic, sp,
				fmt.Sprintf("%s already knows the %s's static key", receiver, sender))
		}
		st.MixHash = true
		st.Encrypted = a.keyed
		if a.keyed {
			a.checkEncrypt(i, sender, sp)
		}
		a.learn(sender, t)

	case pattern.EE, pattern.ES, pattern.SE, pattern.SS:
		a.checkDH(i, j, t, sp)
		sec := shared(t)
		if a.know[pattern.Initiator].Has(sec) {
			a.fail(i, j, t, diag.SemaDuplicateDH, sp, fmt.Sprintf("%s was already performed", t))
		}
		a.know[pattern.Initiator] = a.know[pattern.Initiator].With(sec)
		a.know[pattern.Responder] = a.know[pattern.Responder].With(sec)
		st.MixKey = true
		a.keyed = true

	case pattern.PSK:
		a.checkPSK(i, j, sp, len(src.Tokens))
		a.know[pattern.Initiator] = a.know[pattern.Initiator].With(PresharedKey)
		a.know[pattern.Responder] = a.know[pattern.Responder].With(PresharedKey)
		st.MixHash = true
		st.MixKey = true
		a.keyed = true
		a.pskDone = true

	default:
		panic(fmt.Sprintf("sema: unhandled token %s", t))
	}
	return st
}

// learn records that owner transmitted public key t.
func (a *analyzer) learn(owner pattern.Role, t pattern.Token) {
	a.know[owner] = a.know[owner].With(local(t))
	peer := owner.Peer()
	a.know[peer] = a.know[peer].With(remote(t))
}

// checkDH requires each side to own its half and know the peer's half.
func (a *analyzer) checkDH(i, j int, t pattern.Token, sp source.Span) {
	for _, role := range []pattern.Role{pattern.Initiator, pattern.Responder} {
		mine, theirs := t.KeyFor(role), t.KeyFor(role.Peer())
		if !a.know[role].Has(local(mine)) {
			a.fail(i, j, t, diag.SemaDHPrerequisite, sp,
				fmt.Sprintf("%s requires the %s's %s key, which has not been sent", t, role, keyName(mine)))
			return
		}
		if !a.know[role].Has(remote(theirs)) {
			a.fail(i, j, t, diag.SemaDHPrerequisite, sp,
				fmt.Sprintf("%s requires the %s's %s key, which the %s does not know yet", t, role.Peer(), keyName(theirs), role))
			return
		}
	}
}

// checkPSK enforces that psk is declared and sits where a pskN modifier says.
func (a *analyzer) checkPSK(i, j int, sp source.Span, count int) {
	if !a.usesPSK {
		a.failFix(i, j, pattern.PSK, diag.SemaPskUndeclared, sp,
			fmt.Sprintf("psk token in a pattern without psk modifier; name it %s", suggestPSKName(a.spec.Name, i, j)))
		return
	}
	for k, m := range a.spec.Modifiers {
		if m.Kind != pattern.ModPSK {
			continue
		}
		if m.Position == 0 && i == 0 && j == 0 || m.Position > 0 && i == m.Position-1 && j == count-1 {
			a.pskUsed[k] = true
			return
		}
	}
	a.fail(i, j, pattern.PSK, diag.SemaPskPlacement, sp,
		fmt.Sprintf("psk at message %s position %d does not match any psk modifier of %s", pattern.Letter(i), j+1, a.spec.Name))
}

// checkEncrypt runs before the sender encrypts anything.
func (a *analyzer) checkEncrypt(i int, sender pattern.Role, sp source.Span) {
	if a.pskDone && !a.know[sender].Has(LocalEphemeral) {
		a.fail(i, -1, 0, diag.SemaPskWithoutEphemeral, sp,
			fmt.Sprintf("%s encrypts after psk without having sent an ephemeral key", sender))
	}
	// After DH(local static, remote X) the sender also needs DH(local e, remote X).
	for _, theirs := range []pattern.Token{pattern.E, pattern.S} {
		if a.know[sender].Has(shared(dhToken(sender, pattern.S, theirs))) &&
			!a.know[sender].Has(shared(dhToken(sender, pattern.E, theirs))) {
			diag.ReportWarning(a.reporter, diag.SemaWeakStaticEncryption, sp,
				fmt.Sprintf("%s encrypts after %s without %s", sender,
					dhToken(sender, pattern.S, theirs), dhToken(sender, pattern.E, theirs))).Emit()
		}
	}
}

// dhToken names the DH between role's key mine and the peer's key theirs.
func dhToken(role pattern.Role, mine, theirs pattern.Token) pattern.Token {
	i, r := mine, theirs
	if role == pattern.Responder {
		i, r = theirs, mine
	}
	switch {
	case i == pattern.E && r == pattern.E:
		return pattern.EE
	case i == pattern.E:
		return pattern.ES
	case r == pattern.E:
		return pattern.SE
	}
	return pattern.SS
}

func keyName(t pattern.Token) string {
	if t == pattern.E {
		return "ephemeral"
	}
	return "static"
}

func suggestPSKName(name string, msg, pos int) string {
	n := msg + 1
	if msg == 0 && pos == 0 {
		n = 0
	}
	if _, mods, _ := pattern.ParseName(name); len(mods) > 0 {
		return fmt.Sprintf("%s+psk%d", name, n)
	}
	return fmt.Sprintf("%spsk%d", name, n)
}

// checkDirection enforces alternation and one-way restrictions.
func (a *analyzer) checkDirection(i int, src *pattern.Message) {
	if a.spec.OneWay() {
		if src.Sender != pattern.Initiator || i > 0 && !src.Transport {
			a.fail(i, -1, 0, diag.SemaOneWayReply, src.Span,
				fmt.Sprintf("one-way pattern %s allows a single initiator message", a.spec.Name))
		}
		return
	}
	if src.Transport {
		return
	}
	want := pattern.Initiator
	if i%2 == 1 {
		want = pattern.Responder
	}
	if src.Sender != want {
		a.fail(i, -1, 0, diag.SemaDirection, src.Span,
			fmt.Sprintf("message %s must be sent by the %s", pattern.Letter(i), want))
	}
}

func (a *analyzer) fail(i, j int, t pattern.Token, code diag.Code, sp source.Span, msg string) {
	a.report(i, j, t, diag.ReportError(a.reporter, code, sp, msg), code, sp, msg)
}

func (a *analyzer) failFix(i, j int, t pattern.Token, code diag.Code, sp source.Span, msg string) {
	b := diag.ReportError(a.reporter, code, sp, msg).WithNote(a.spec.NameSpan, "pattern name declared here")
	a.report(i, j, t, b, code, sp, msg)
}

func (a *analyzer) report(i, j int, t pattern.Token, b *diag.ReportBuilder, code diag.Code, sp source.Span, msg string) {
	b.Emit()
	if a.first == nil {
		a.first = &CausalityError{
			Message:    i,
			Token:      t,
			TokenIndex: j,
			Diag:       diag.NewError(code, sp, msg),
		}
	}
}
