package proverif

import (
	"fmt"
	"strings"

	"noisec/internal/backend"
	"noisec/internal/pattern"
	"noisec/internal/sema"
)

// Sender and receiver run separate sessions, so a received message is matched
// to a send of the same plaintext under any session id.
//
// Query levels per message. Authentication: a sanity query, then auth1
// (sender authenticated unless either static key leaked before the message)
// and auth2 (unless the sender's static leaked). Confidentiality: a sanity
// query, then conf1 (secret unless the recipient's static ever leaks), conf2
// (unless it leaked before the session) and conf3 (unless either static
// leaked before the session).
const (
	AuthLevels = 2
	ConfLevels = 3
)

func queries(ir *sema.IR) string {
	w := backend.NewWriter("\t")
	for i := range ir.Messages {
		m := &ir.Messages[i]
		writeAuthQueries(w, ir, m)
		writeConfQueries(w, ir, m)
		w.Blank()
	}
	return w.String()
}

func writeAuthQueries(w *backend.Writer, ir *sema.IR, m *sema.Message) {
	l := letter(m)
	s, r := m.Sender.Principal(), m.Receiver.Principal()
	recv := fmt.Sprintf("event(RecvMsg(%s, %s, stagepack_%s(sid), m))", r, s, l)
	send := fmt.Sprintf("event(SendMsg(%s, c, stagepack_%s(sid_s), m))", s, l)
	w.Line("(* message %s: authentication sanity, auth1, auth2 *)", m.Letter)
	w.Line("query sid:sessionid, m:bitstring; %s.", recv)

	auth1 := []string{send, leakS(0, s), leakS(0, r)}
	if ir.UsesPSK {
		auth1 = append(auth1, leakPSK(0))
	}
	w.Line("query c:principal, sid:sessionid, sid_s:sessionid, m:bitstring; %s ==> %s.", recv, disjunction(auth1))
	w.Line("query c:principal, sid:sessionid, sid_s:sessionid, m:bitstring; %s ==> %s.", recv, disjunction([]string{send, leakS(0, s)}))
}

func writeConfQueries(w *backend.Writer, ir *sema.IR, m *sema.Message) {
	l := letter(m)
	s, r := m.Sender.Principal(), m.Receiver.Principal()
	secret := fmt.Sprintf("attacker(msg_%s(%s, %s, sid)) phase 1", l, s, r)
	w.Line("(* message %s: confidentiality sanity, conf1, conf2, conf3 *)", m.Letter)
	w.Line("query sid:sessionid; %s.", secret)

	conf1 := []string{leakS(0, r), leakS(1, r)}
	if ir.UsesPSK {
		conf1 = append(conf1, leakPSK(0), leakPSK(1))
	}
	w.Line("query sid:sessionid; %s ==> %s.", secret, disjunction(conf1))
	w.Line("query sid:sessionid; %s ==> %s.", secret, disjunction([]string{leakS(0, r)}))
	w.Line("query sid:sessionid; %s ==> %s.", secret, disjunction([]string{leakS(0, r), leakS(0, s)}))
}

func leakS(phase int, p string) string {
	return fmt.Sprintf("event(LeakS(phase%d, %s))", phase, p)
}

func leakPSK(phase int) string {
	return fmt.Sprintf("event(LeakPsk(phase%d, %s, %s))", phase,
		pattern.Initiator.Principal(), pattern.Responder.Principal())
}

func disjunction(facts []string) string {
	if len(facts) == 1 {
		return facts[0]
	}
	return "(" + strings.Join(facts, " || ") + ")"
}
