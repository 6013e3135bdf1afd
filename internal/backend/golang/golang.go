// Package golang emits a Go implementation of a handshake pattern.
package golang

import (
	"fmt"
	"strings"

	"noisec/internal/backend"
	"noisec/internal/pattern"
	"noisec/internal/sema"
)

type Emitter struct{}

func New() *Emitter { return &Emitter{} }

// Generate produces the Go fragments for ir.
func Generate(ir *sema.IR) (*backend.FragmentSet, error) {
	return backend.Walk(ir, New())
}

func (em *Emitter) Kind() backend.Kind { return backend.Go }

func (em *Emitter) Indent() string { return "\t" }

// Covers skips transport messages; writeMessageRegular handles them.
func (em *Emitter) Covers(m *sema.Message) bool { return !m.Transport }

func (em *Emitter) Slots() []backend.Slot {
	return backend.AllSlots(backend.SlotIdent)
}

func method(path backend.Path, m *sema.Message) string {
	if path == backend.WritePath {
		return "writeMessage" + m.Letter
	}
	return "readMessage" + m.Letter
}

// fail is the return statement for an error inside a message function.
func fail(path backend.Path, m *sema.Message, err string) string {
	if m.Final {
		return fmt.Sprintf("return [32]byte{}, nil, cipherstate{}, cipherstate{}, %s", err)
	}
	return "return nil, " + err
}

func (em *Emitter) Init(w *backend.Writer, ir *sema.IR) {
	for _, role := range []pattern.Role{pattern.Initiator, pattern.Responder} {
		name := "initializeInitiator"
		if role == pattern.Responder {
			name = "initializeResponder"
		}
		w.Line("func %s(prologue []byte, s Keypair, e Keypair, rs [32]byte, re [32]byte, psk [32]byte) handshakestate {", name)
		w.Indent()
		w.Line("hs := handshakestate{s: s, e: e, rs: rs, re: re, psk: psk}")
		w.Line("hs.ss = initializeSymmetric([]byte(%q))", ir.ProtocolName)
		w.Line("hs.ss.mixHash(prologue)")
		for _, pk := range ir.PreKeys {
			pub := preKey(pk, role)
			w.Line("hs.ss.mixHash(%s[:])", pub)
			if pk.MixKey {
				w.Line("hs.ss.mixKey(%s)", pub)
			}
		}
		w.Line("return hs")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}
}

func preKey(pk sema.PreKey, role pattern.Role) string {
	own := pk.Role == role
	switch {
	case pk.Token == pattern.E && own:
		return "hs.e.PublicKey"
	case pk.Token == pattern.E:
		return "hs.re"
	case own:
		return "hs.s.PublicKey"
	}
	return "hs.rs"
}

func (em *Emitter) BeginMessage(w *backend.Writer, ir *sema.IR, m *sema.Message, path backend.Path) {
	switch {
	case path == backend.WritePath && m.Final:
		w.Line("func (hs *handshakestate) %s(payload []byte) ([32]byte, *MessageBuffer, cipherstate, cipherstate, error) {", method(path, m))
	case path == backend.WritePath:
		w.Line("func (hs *handshakestate) %s(payload []byte) (*MessageBuffer, error) {", method(path, m))
	case m.Final:
		w.Line("func (hs *handshakestate) %s(mb *MessageBuffer) ([32]byte, []byte, cipherstate, cipherstate, error) {", method(path, m))
	default:
		w.Line("func (hs *handshakestate) %s(mb *MessageBuffer) ([]byte, error) {", method(path, m))
	}
	w.Indent()
	w.Line("var err error")
	if path == backend.WritePath {
		w.Line("mb := &MessageBuffer{}")
	}
}

func (em *Emitter) Token(w *backend.Writer, ir *sema.IR, m *sema.Message, st sema.Step, path backend.Path) {
	self := m.Sender
	if path == backend.ReadPath {
		self = m.Receiver
	}
	switch {
	case st.Token == pattern.E && path == backend.WritePath:
		block(w, "err = hs.ephemeral(); err != nil", fail(path, m, "err"))
		w.Line("mb.NE = append([]byte(nil), hs.e.PublicKey[:]...)")
		w.Line("hs.ss.mixHash(mb.NE)")
		if st.MixKey {
			w.Line("hs.ss.mixKey(hs.e.PublicKey)")
		}
	case st.Token == pattern.E:
		block(w, "len(mb.NE) != 32", fail(path, m, "ErrInvalidMessage"))
		w.Line("copy(hs.re[:], mb.NE)")
		w.Line("hs.ss.mixHash(hs.re[:])")
		if st.MixKey {
			w.Line("hs.ss.mixKey(hs.re)")
		}
	case st.Token == pattern.S && path == backend.WritePath:
		block(w, "mb.NS, err = hs.ss.encryptAndHash(hs.s.PublicKey[:]); err != nil", fail(path, m, "err"))
	case st.Token == pattern.S:
		w.Line("rs, err := hs.ss.decryptAndHash(mb.NS)")
		block(w, "err != nil", fail(path, m, "err"))
		block(w, "len(rs) != 32", fail(path, m, "ErrInvalidMessage"))
		w.Line("copy(hs.rs[:], rs)")
	case st.Token.IsDH():
		mine, theirs := st.Token.KeyFor(self), st.Token.KeyFor(self.Peer())
		block(w, fmt.Sprintf("err = hs.mixDH(hs.%s.PrivateKey, hs.r%s); err != nil", mine, theirs), fail(path, m, "err"))
	case st.Token == pattern.PSK:
		w.Line("hs.ss.mixKeyAndHash(hs.psk)")
	}
}

func block(w *backend.Writer, cond, body string) {
	w.Line("if %s {", cond)
	w.Indent()
	w.Line("%s", body)
	w.Dedent()
	w.Line("}")
}

func (em *Emitter) EndMessage(w *backend.Writer, ir *sema.IR, m *sema.Message, path backend.Path) {
	if path == backend.WritePath {
		block(w, "mb.Ciphertext, err = hs.ss.encryptAndHash(payload); err != nil", fail(path, m, "err"))
		if m.Final {
			w.Line("cs1, cs2 := hs.ss.split()")
			w.Line("return hs.ss.h, mb, cs1, cs2, nil")
		} else {
			w.Line("return mb, nil")
		}
	} else {
		w.Line("plaintext, err := hs.ss.decryptAndHash(mb.Ciphertext)")
		block(w, "err != nil", fail(path, m, "err"))
		if m.Final {
			w.Line("cs1, cs2 := hs.ss.split()")
			w.Line("return hs.ss.h, plaintext, cs1, cs2, nil")
		} else {
			w.Line("return plaintext, nil")
		}
	}
	w.Dedent()
	w.Line("}")
	w.Blank()
}

func (em *Emitter) Declarations(ir *sema.IR) ([]backend.Fragment, error) {
	ident, _ := ir.Pattern.Identifier()
	return []backend.Fragment{
		{Slot: backend.SlotIdent, Text: ident},
		{Slot: backend.SlotProcesses, Text: session(ir)},
	}, nil
}

// SessionParams lists the InitSession parameters after initiator and
// prologue. Harness generators call InitSession with the same shape.
func SessionParams(ir *sema.IR) []string {
	params := []string{"s Keypair", "rs [32]byte"}
	if ir.UsesPSK {
		params = append(params, "psk [32]byte")
	}
	if hasPreEphemeral(ir) {
		params = append(params, "e Keypair", "re [32]byte")
	}
	return params
}

func hasPreEphemeral(ir *sema.IR) bool {
	return ir.PreEphemeral(pattern.Initiator) || ir.PreEphemeral(pattern.Responder)
}

func session(ir *sema.IR) string {
	w := backend.NewWriter("\t")
	w.Line("// InitSession prepares one side of a %s handshake. rs is the peer's static", ir.Pattern.Name)
	w.Line("// public key when the pattern sends it ahead of the handshake.")
	w.Line("func InitSession(initiator bool, prologue []byte, %s) *NoiseSession {", strings.Join(SessionParams(ir), ", "))
	w.Indent()
	if !ir.UsesPSK {
		w.Line("psk := emptyKey")
	}
	if !hasPreEphemeral(ir) {
		w.Line("var e Keypair")
		w.Line("re := emptyKey")
	}
	w.Line("session := &NoiseSession{i: initiator}")
	w.Line("if initiator {")
	w.Indent()
	w.Line("session.hs = initializeInitiator(prologue, s, e, rs, re, psk)")
	w.Dedent()
	w.Line("} else {")
	w.Indent()
	w.Line("session.hs = initializeResponder(prologue, s, e, rs, re, psk)")
	w.Dedent()
	w.Line("}")
	w.Line("return session")
	w.Dedent()
	w.Line("}")
	w.Blank()

	hs := ir.Handshake()
	w.Line("// SendMessage encrypts payload as the next message of the session.")
	w.Line("func (s *NoiseSession) SendMessage(payload []byte) (*MessageBuffer, error) {")
	w.Indent()
	w.Line("var (")
	w.Indent()
	w.Line("mb  *MessageBuffer")
	w.Line("err error")
	w.Dedent()
	w.Line(")")
	w.Line("switch s.mc {")
	for i := range hs {
		m := &hs[i]
		w.Line("case %d:", i)
		w.Indent()
		if m.Final {
			w.Line("s.h, mb, s.cs1, s.cs2, err = s.hs.%s(payload)", method(backend.WritePath, m))
		} else {
			w.Line("mb, err = s.hs.%s(payload)", method(backend.WritePath, m))
		}
		w.Dedent()
	}
	w.Line("default:")
	w.Indent()
	w.Line("if s.i {")
	w.Line("\tmb, err = writeMessageRegular(&s.cs1, payload)")
	w.Line("} else {")
	w.Line("\tmb, err = writeMessageRegular(&s.cs2, payload)")
	w.Line("}")
	w.Dedent()
	w.Line("}")
	block(w, "err != nil", "return nil, err")
	w.Line("s.mc++")
	w.Line("return mb, nil")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("// RecvMessage authenticates and decrypts the next message of the session.")
	w.Line("func (s *NoiseSession) RecvMessage(mb *MessageBuffer) ([]byte, error) {")
	w.Indent()
	w.Line("var (")
	w.Indent()
	w.Line("plaintext []byte")
	w.Line("err       error")
	w.Dedent()
	w.Line(")")
	w.Line("switch s.mc {")
	for i := range hs {
		m := &hs[i]
		w.Line("case %d:", i)
		w.Indent()
		if m.Final {
			w.Line("s.h, plaintext, s.cs1, s.cs2, err = s.hs.%s(mb)", method(backend.ReadPath, m))
		} else {
			w.Line("plaintext, err = s.hs.%s(mb)", method(backend.ReadPath, m))
		}
		w.Dedent()
	}
	w.Line("default:")
	w.Indent()
	w.Line("if s.i {")
	w.Line("\tplaintext, err = readMessageRegular(&s.cs2, mb)")
	w.Line("} else {")
	w.Line("\tplaintext, err = readMessageRegular(&s.cs1, mb)")
	w.Line("}")
	w.Dedent()
	w.Line("}")
	block(w, "err != nil", "return nil, err")
	w.Line("s.mc++")
	w.Line("return plaintext, nil")
	w.Dedent()
	w.Line("}")
	return w.String()
}
