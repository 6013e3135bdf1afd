package proverif

import (
	"noisec/internal/backend"
	"noisec/internal/pattern"
	"noisec/internal/sema"
)

// processes emits one process per role; each message is a parallel branch
// that picks the session state up from statestore at its stage.
func processes(ir *sema.IR) string {
	w := backend.NewWriter("\t")
	for _, role := range []pattern.Role{pattern.Initiator, pattern.Responder} {
		writeRole(w, ir, role)
		w.Blank()
	}
	return w.String()
}

func writeRole(w *backend.Writer, ir *sema.IR, role pattern.Role) {
	peer := role.Peer()
	w.Line("let %s(me:principal, them:principal, sid:sessionid) =", role)
	w.Indent()
	if ir.HasStatic(role) {
		w.Line("let s = generate_keypair(key_s(me)) in")
		w.Line("out(pub, getpublickey(s));")
	} else {
		w.Line("let s = keypairpack(empty_key, empty_key) in")
	}
	w.Line("(")
	w.Indent()
	if ir.PreEphemeral(role) {
		w.Line("let e = generate_keypair(key_e(me, them, sid)) in")
	} else {
		w.Line("let e = keypairpack(empty_key, empty_key) in")
	}
	if ir.PreStatic(peer) {
		w.Line("let rs = getpublickey(generate_keypair(key_s(them))) in")
	} else {
		w.Line("let rs = empty_key in")
	}
	if ir.PreEphemeral(peer) {
		w.Line("let re = getpublickey(generate_keypair(key_e(them, me, sid))) in")
	} else {
		w.Line("let re = empty_key in")
	}
	switch {
	case !ir.UsesPSK:
		w.Line("let psk = empty_key in")
	case role == pattern.Initiator:
		w.Line("let psk = key_psk(me, them) in")
	default:
		w.Line("let psk = key_psk(them, me) in")
	}
	w.Line("let hs = initialize_%s(empty, s, e, rs, re, psk) in", role)
	w.Line("insert statestore(me, them, stagepack_%s(sid), hs)", letter(&ir.Messages[0]))
	w.Dedent()

	for i := range ir.Messages {
		m := &ir.Messages[i]
		l := letter(m)
		w.Line(") | (")
		w.Indent()
		w.Line("get statestore(=me, =them, =stagepack_%s(sid), hs:handshakestate) in", l)
		next := ""
		if i+1 < len(ir.Messages) {
			next = letter(&ir.Messages[i+1])
		}
		if m.Sender == role {
			w.Line("let (hs:handshakestate, message_%s:bitstring) = writeMessage_%s(me, them, hs, msg_%s(me, them, sid), sid) in", l, l, l)
			w.Line("event SendMsg(me, them, stagepack_%s(sid), msg_%s(me, them, sid));", l, l)
			if next != "" {
				w.Line("insert statestore(me, them, stagepack_%s(sid), hs);", next)
			}
			w.Line("out(pub, message_%s)", l)
		} else {
			w.Line("in(pub, message_%s:bitstring);", l)
			w.Line("let (hs:handshakestate, plaintext_%s:bitstring) = readMessage_%s(me, them, hs, message_%s, sid) in", l, l, l)
			if next != "" {
				w.Line("event RecvMsg(me, them, stagepack_%s(sid), plaintext_%s);", l, l)
				w.Line("insert statestore(me, them, stagepack_%s(sid), hs)", next)
			} else {
				w.Line("event RecvMsg(me, them, stagepack_%s(sid), plaintext_%s)", l, l)
			}
		}
		w.Dedent()
	}
	w.Line(").")
	w.Dedent()
}

// leaks emits the key compromise processes: before the session (phase 0)
// and after it (phase 1).
func leaks(ir *sema.IR) string {
	w := backend.NewWriter("\t")
	w.Line("let leak_s_phase0(p:principal) =")
	w.Indent()
	w.Line("event LeakS(phase0, p);")
	w.Line("out(pub, key_s(p)).")
	w.Dedent()
	w.Blank()
	w.Line("let leak_s_phase1(p:principal) =")
	w.Indent()
	w.Line("phase 1;")
	w.Line("event LeakS(phase1, p);")
	w.Line("out(pub, key_s(p)).")
	w.Dedent()
	if !ir.UsesPSK {
		return w.String()
	}
	w.Blank()
	w.Line("let leak_psk_phase0(p_a:principal, p_b:principal) =")
	w.Indent()
	w.Line("event LeakPsk(phase0, p_a, p_b);")
	w.Line("out(pub, key_psk(p_a, p_b)).")
	w.Dedent()
	w.Blank()
	w.Line("let leak_psk_phase1(p_a:principal, p_b:principal) =")
	w.Indent()
	w.Line("phase 1;")
	w.Line("event LeakPsk(phase1, p_a, p_b);")
	w.Line("out(pub, key_psk(p_a, p_b)).")
	w.Dedent()
	return w.String()
}

func mainProcess(ir *sema.IR) string {
	a, b := pattern.Initiator.Principal(), pattern.Responder.Principal()
	w := backend.NewWriter("\t")
	w.Line("process")
	w.Indent()
	w.Line("(")
	w.Indent()
	w.Line("!(new sid:sessionid; initiator(%s, %s, sid))", a, b)
	w.Line("| !(new sid:sessionid; initiator(%s, charlie, sid))", a)
	w.Line("| !(new sid:sessionid; responder(%s, %s, sid))", b, a)
	w.Line("| !(new sid:sessionid; responder(%s, charlie, sid))", b)
	w.Line("| out(pub, key_s(charlie))")
	if ir.UsesPSK {
		w.Line("| out(pub, key_psk(%s, charlie))", a)
		w.Line("| out(pub, key_psk(charlie, %s))", b)
	}
	for _, p := range []string{a, b} {
		w.Line("| !leak_s_phase0(%s) | !leak_s_phase1(%s)", p, p)
	}
	if ir.UsesPSK {
		w.Line("| !leak_psk_phase0(%s, %s) | !leak_psk_phase1(%s, %s)", a, b, a, b)
	}
	w.Dedent()
	w.Line(")")
	w.Dedent()
	return w.String()
}
