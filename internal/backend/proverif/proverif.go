// Package proverif emits an applied-pi model of a handshake pattern for the
// ProVerif protocol verifier.
package proverif

import (
	"fmt"
	"strings"

	"noisec/internal/backend"
	"noisec/internal/pattern"
	"noisec/internal/sema"
)

// Attacker selects the network adversary the model is checked against.
type Attacker string

const (
	Active  Attacker = "active"
	Passive Attacker = "passive"
)

// Attackers lists both models in the order they are generated.
var Attackers = []Attacker{Active, Passive}

func ParseAttacker(s string) (Attacker, error) {
	switch Attacker(strings.ToLower(s)) {
	case Active:
		return Active, nil
	case Passive:
		return Passive, nil
	}
	return "", fmt.Errorf("unknown attacker model %q", s)
}

// Options configures one model.
type Options struct {
	Attacker Attacker
}

// Emitter implements backend.Emitter for the model.
type Emitter struct {
	opts Options
}

func New(opts Options) *Emitter {
	if opts.Attacker == "" {
		opts.Attacker = Active
	}
	return &Emitter{opts: opts}
}

// Generate produces the model fragments for ir.
func Generate(ir *sema.IR, opts Options) (*backend.FragmentSet, error) {
	return backend.Walk(ir, New(opts))
}

func (em *Emitter) Kind() backend.Kind { return backend.Model }

func (em *Emitter) Indent() string { return "\t" }

// Covers is true for every message: transport messages are modelled too.
func (em *Emitter) Covers(*sema.Message) bool { return true }

func (em *Emitter) Slots() []backend.Slot {
	return backend.AllSlots(backend.SlotParams, backend.SlotKeys, backend.SlotMessages,
		backend.SlotQueries, backend.SlotLeaks, backend.SlotMain)
}

const stateFields = "ss:symmetricstate, s:keypair, e:keypair, rs:key, re:key, psk:key, initiator:bool, cs1:cipherstate, cs2:cipherstate"

const statePack = "handshakestatepack(ss, s, e, rs, re, psk, initiator, cs1, cs2)"

func letter(m *sema.Message) string { return strings.ToLower(m.Letter) }

// Init emits initialize_initiator and initialize_responder.
func (em *Emitter) Init(w *backend.Writer, ir *sema.IR) {
	for _, role := range []pattern.Role{pattern.Initiator, pattern.Responder} {
		w.Line("letfun initialize_%s(prologue:bitstring, s:keypair, e:keypair, rs:key, re:key, psk:key) =", role)
		w.Indent()
		w.Line("let ss = initializeSymmetric(protocol_name) in")
		w.Line("let ss = mixHash(ss, prologue) in")
		for _, pk := range ir.PreKeys {
			pub := preKeyTerm(pk, role)
			w.Line("let ss = mixHash(ss, key2bit(%s)) in", pub)
			if pk.MixKey {
				w.Line("let ss = mixKey(ss, %s) in", pub)
			}
		}
		w.Line("handshakestatepack(ss, s, e, rs, re, psk, %t, initializeKey(empty_key), initializeKey(empty_key)).", role == pattern.Initiator)
		w.Dedent()
		w.Blank()
	}
}

// preKeyTerm is the public key of pk as seen by role.
func preKeyTerm(pk sema.PreKey, role pattern.Role) string {
	own := pk.Role == role
	switch {
	case pk.Token == pattern.E && own:
		return "getpublickey(e)"
	case pk.Token == pattern.E:
		return "re"
	case own:
		return "getpublickey(s)"
	}
	return "rs"
}

func (em *Emitter) BeginMessage(w *backend.Writer, ir *sema.IR, m *sema.Message, path backend.Path) {
	l := letter(m)
	if path == backend.WritePath {
		w.Line("letfun writeMessage_%s(me:principal, them:principal, hs:handshakestate, payload:bitstring, sid:sessionid) =", l)
	} else {
		w.Line("letfun readMessage_%s(me:principal, them:principal, hs:handshakestate, message:bitstring, sid:sessionid) =", l)
	}
	w.Indent()
	w.Line("let handshakestatepack(%s) = hs in", stateFields)
	if path == backend.ReadPath {
		w.Line("let concat3(ne:bitstring, ns:bitstring, ciphertext:bitstring) = message in")
		return
	}
	if !m.Has(pattern.E) {
		w.Line("let ne = empty in")
	}
	if !m.Has(pattern.S) {
		w.Line("let ns = empty in")
	}
}

func (em *Emitter) Token(w *backend.Writer, ir *sema.IR, m *sema.Message, st sema.Step, path backend.Path) {
	self := m.Sender
	if path == backend.ReadPath {
		self = m.Receiver
	}
	switch {
	case st.Token == pattern.E && path == backend.WritePath:
		w.Line("let e = generate_keypair(key_e(me, them, sid)) in")
		w.Line("let ne = key2bit(getpublickey(e)) in")
		w.Line("let ss = mixHash(ss, ne) in")
		if st.MixKey {
			w.Line("let ss = mixKey(ss, getpublickey(e)) in")
		}
	case st.Token == pattern.E:
		w.Line("let re = bit2key(ne) in")
		w.Line("let ss = mixHash(ss, key2bit(re)) in")
		if st.MixKey {
			w.Line("let ss = mixKey(ss, re) in")
		}
	case st.Token == pattern.S && path == backend.WritePath:
		w.Line("let (ss:symmetricstate, ns:bitstring) = encryptAndHash(ss, key2bit(getpublickey(s))) in")
	case st.Token == pattern.S:
		w.Line("let (ss:symmetricstate, plain_s:bitstring) = decryptAndHash(ss, ns) in")
		w.Line("let rs = bit2key(plain_s) in")
	case st.Token.IsDH():
		mine, theirs := st.Token.KeyFor(self), st.Token.KeyFor(self.Peer())
		w.Line("let ss = mixKey(ss, dh(%s, r%s)) in", mine, theirs)
	case st.Token == pattern.PSK:
		w.Line("let ss = mixKeyAndHash(ss, psk) in")
	}
}

func (em *Emitter) EndMessage(w *backend.Writer, ir *sema.IR, m *sema.Message, path backend.Path) {
	if m.Transport {
		cs := "cs2"
		if m.Sender == pattern.Initiator {
			cs = "cs1"
		}
		if path == backend.WritePath {
			w.Line("let (%s:cipherstate, ciphertext:bitstring) = encryptWithAd(%s, empty, payload) in", cs, cs)
			w.Line("let hs = %s in", statePack)
			w.Line("(hs, concat3(empty, empty, ciphertext)).")
		} else {
			w.Line("let (%s:cipherstate, plaintext:bitstring) = decryptWithAd(%s, empty, ciphertext) in", cs, cs)
			w.Line("let hs = %s in", statePack)
			w.Line("(hs, plaintext).")
		}
		w.Dedent()
		w.Blank()
		return
	}

	if path == backend.WritePath {
		w.Line("let (ss:symmetricstate, ciphertext:bitstring) = encryptAndHash(ss, payload) in")
	} else {
		w.Line("let (ss:symmetricstate, plaintext:bitstring) = decryptAndHash(ss, ciphertext) in")
	}
	if m.Final {
		w.Line("let (cs1:cipherstate, cs2:cipherstate) = split(ss) in")
	}
	w.Line("let hs = %s in", statePack)
	if path == backend.WritePath {
		w.Line("(hs, concat3(ne, ns, ciphertext)).")
	} else {
		w.Line("(hs, plaintext).")
	}
	w.Dedent()
	w.Blank()
}

// Declarations emits every slot outside the message functions.
func (em *Emitter) Declarations(ir *sema.IR) ([]backend.Fragment, error) {
	return []backend.Fragment{
		{Slot: backend.SlotParams, Text: em.params()},
		{Slot: backend.SlotKeys, Text: keys(ir)},
		{Slot: backend.SlotMessages, Text: messages(ir)},
		{Slot: backend.SlotQueries, Text: queries(ir)},
		{Slot: backend.SlotProcesses, Text: processes(ir)},
		{Slot: backend.SlotLeaks, Text: leaks(ir)},
		{Slot: backend.SlotMain, Text: mainProcess(ir)},
	}, nil
}

func (em *Emitter) params() string {
	w := backend.NewWriter("\t")
	w.Line("set attacker = %s.", em.opts.Attacker)
	w.Line("set reconstructTrace = false.")
	w.Line("set preciseActions = true.")
	return w.String()
}

func keys(ir *sema.IR) string {
	w := backend.NewWriter("\t")
	w.Line("fun key_s(principal):key [private].")
	w.Line("fun key_e(principal, principal, sessionid):key [private].")
	if ir.UsesPSK {
		w.Line("fun key_psk(principal, principal):key [private].")
	}
	return w.String()
}

func messages(ir *sema.IR) string {
	w := backend.NewWriter("\t")
	for i := range ir.Messages {
		l := letter(&ir.Messages[i])
		w.Line("fun msg_%s(principal, principal, sessionid):bitstring [private].", l)
		w.Line("fun stagepack_%s(sessionid):stage [data].", l)
	}
	return w.String()
}
