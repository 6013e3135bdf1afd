// Package rust emits a Rust implementation of a handshake pattern.
package rust

import (
	"fmt"
	"strings"

	"noisec/internal/backend"
	"noisec/internal/pattern"
	"noisec/internal/sema"
)

type Emitter struct{}

func New() *Emitter { return &Emitter{} }

// Generate produces the Rust fragments for ir.
func Generate(ir *sema.IR) (*backend.FragmentSet, error) {
	return backend.Walk(ir, New())
}

func (em *Emitter) Kind() backend.Kind { return backend.Rust }

func (em *Emitter) Indent() string { return "    " }

func (em *Emitter) Covers(m *sema.Message) bool { return !m.Transport }

func (em *Emitter) Slots() []backend.Slot {
	return backend.AllSlots(backend.SlotIdent)
}

func method(path backend.Path, m *sema.Message) string {
	return fmt.Sprintf("%s_message_%s", path, strings.ToLower(m.Letter))
}

// Init, write and read fragments land inside `impl HandshakeState` blocks.
func (em *Emitter) Init(w *backend.Writer, ir *sema.IR) {
	w.Indent()
	for _, role := range []pattern.Role{pattern.Initiator, pattern.Responder} {
		w.Line("fn initialize_%s(prologue: &[u8], s: Keypair, e: Keypair, rs: [u8; DHLEN], re: [u8; DHLEN], psk: [u8; DHLEN]) -> HandshakeState {", role)
		w.Indent()
		w.Line("let mut ss = SymmetricState::new(b%q);", ir.ProtocolName)
		w.Line("ss.mix_hash(prologue);")
		for _, pk := range ir.PreKeys {
			pub := preKey(pk, role)
			w.Line("ss.mix_hash(%s);", pub)
			if pk.MixKey {
				w.Line("ss.mix_key(%s);", pub)
			}
		}
		w.Line("HandshakeState { ss, s, e, rs, re, psk, preset_e: None }")
		w.Dedent()
		w.Line("}")
		if role == pattern.Initiator {
			w.Blank()
		}
	}
	w.Dedent()
}

func preKey(pk sema.PreKey, role pattern.Role) string {
	own := pk.Role == role
	switch {
	case pk.Token == pattern.E && own:
		return "&e.public_key"
	case pk.Token == pattern.E:
		return "&re"
	case own:
		return "&s.public_key"
	}
	return "&rs"
}

func (em *Emitter) BeginMessage(w *backend.Writer, ir *sema.IR, m *sema.Message, path backend.Path) {
	if w.Len() > 0 {
		w.Blank()
	}
	w.Indent()
	switch {
	case path == backend.WritePath && m.Final:
		w.Line("fn %s(&mut self, payload: &[u8]) -> Result<([u8; DHLEN], MessageBuffer, CipherState, CipherState), NoiseError> {", method(path, m))
	case path == backend.WritePath:
		w.Line("fn %s(&mut self, payload: &[u8]) -> Result<MessageBuffer, NoiseError> {", method(path, m))
	case m.Final:
		w.Line("fn %s(&mut self, mb: &MessageBuffer) -> Result<([u8; DHLEN], Vec<u8>, CipherState, CipherState), NoiseError> {", method(path, m))
	default:
		w.Line("fn %s(&mut self, mb: &MessageBuffer) -> Result<Vec<u8>, NoiseError> {", method(path, m))
	}
	w.Indent()
	if path == backend.WritePath {
		w.Line("let mut mb = MessageBuffer::default();")
	}
}

func (em *Emitter) Token(w *backend.Writer, ir *sema.IR, m *sema.Message, st sema.Step, path backend.Path) {
	self := m.Sender
	if path == backend.ReadPath {
		self = m.Receiver
	}
	switch {
	case st.Token == pattern.E && path == backend.WritePath:
		w.Line("self.ephemeral();")
		w.Line("mb.ne = self.e.public_key.to_vec();")
		w.Line("self.ss.mix_hash(&mb.ne);")
		if st.MixKey {
			w.Line("self.ss.mix_key(&mb.ne);")
		}
	case st.Token == pattern.E:
		w.Line("if mb.ne.len() != DHLEN {")
		w.Line("    return Err(NoiseError::InvalidMessage);")
		w.Line("}")
		w.Line("self.re.copy_from_slice(&mb.ne);")
		w.Line("self.ss.mix_hash(&mb.ne);")
		if st.MixKey {
			w.Line("self.ss.mix_key(&mb.ne);")
		}
	case st.Token == pattern.S && path == backend.WritePath:
		w.Line("mb.ns = self.ss.encrypt_and_hash(&self.s.public_key)?;")
	case st.Token == pattern.S:
		w.Line("let rs = self.ss.decrypt_and_hash(&mb.ns)?;")
		w.Line("if rs.len() != DHLEN {")
		w.Line("    return Err(NoiseError::InvalidMessage);")
		w.Line("}")
		w.Line("self.rs.copy_from_slice(&rs);")
	case st.Token.IsDH():
		mine, theirs := st.Token.KeyFor(self), st.Token.KeyFor(self.Peer())
		w.Line("self.mix_dh(self.%s.private_key, self.r%s)?;", mine, theirs)
	case st.Token == pattern.PSK:
		w.Line("self.ss.mix_key_and_hash(&self.psk);")
	}
}

func (em *Emitter) EndMessage(w *backend.Writer, ir *sema.IR, m *sema.Message, path backend.Path) {
	if path == backend.WritePath {
		w.Line("mb.ciphertext = self.ss.encrypt_and_hash(payload)?;")
	} else {
		w.Line("let plaintext = self.ss.decrypt_and_hash(&mb.ciphertext)?;")
	}
	result := "mb"
	if path == backend.ReadPath {
		result = "plaintext"
	}
	if m.Final {
		w.Line("let (cs1, cs2) = self.ss.split();")
		w.Line("Ok((self.ss.h, %s, cs1, cs2))", result)
	} else {
		w.Line("Ok(%s)", result)
	}
	w.Dedent()
	w.Line("}")
	w.Dedent()
}

func (em *Emitter) Declarations(ir *sema.IR) ([]backend.Fragment, error) {
	ident, _ := ir.Pattern.Identifier()
	return []backend.Fragment{
		{Slot: backend.SlotIdent, Text: ident},
		{Slot: backend.SlotProcesses, Text: session(ir)},
	}, nil
}

// SessionParams lists the init_session parameters after initiator and prologue.
func SessionParams(ir *sema.IR) []string {
	params := []string{"s: Keypair", "rs: [u8; DHLEN]"}
	if ir.UsesPSK {
		params = append(params, "psk: [u8; DHLEN]")
	}
	if hasPreEphemeral(ir) {
		params = append(params, "e: Keypair", "re: [u8; DHLEN]")
	}
	return params
}

func hasPreEphemeral(ir *sema.IR) bool {
	return ir.PreEphemeral(pattern.Initiator) || ir.PreEphemeral(pattern.Responder)
}

func session(ir *sema.IR) string {
	w := backend.NewWriter("    ")
	w.Line("impl NoiseSession {")
	w.Indent()
	w.Line("pub fn init_session(initiator: bool, prologue: &[u8], %s) -> NoiseSession {", strings.Join(SessionParams(ir), ", "))
	w.Indent()
	if !ir.UsesPSK {
		w.Line("let psk = EMPTY_KEY;")
	}
	if !hasPreEphemeral(ir) {
		w.Line("let e = Keypair::new_empty();")
		w.Line("let re = EMPTY_KEY;")
	}
	w.Line("let hs = if initiator {")
	w.Line("    HandshakeState::initialize_initiator(prologue, s, e, rs, re, psk)")
	w.Line("} else {")
	w.Line("    HandshakeState::initialize_responder(prologue, s, e, rs, re, psk)")
	w.Line("};")
	w.Line("NoiseSession {")
	w.Indent()
	w.Line("hs,")
	w.Line("h: EMPTY_KEY,")
	w.Line("cs1: CipherState::new(EMPTY_KEY),")
	w.Line("cs2: CipherState::new(EMPTY_KEY),")
	w.Line("mc: 0,")
	w.Line("i: initiator,")
	w.Dedent()
	w.Line("}")
	w.Dedent()
	w.Line("}")
	w.Blank()

	writeDispatch(w, ir, backend.WritePath)
	w.Blank()
	writeDispatch(w, ir, backend.ReadPath)
	w.Dedent()
	w.Line("}")
	return w.String()
}

func writeDispatch(w *backend.Writer, ir *sema.IR, path backend.Path) {
	arg, own, peer, result := "payload", "cs1", "cs2", "mb"
	if path == backend.WritePath {
		w.Line("pub fn send_message(&mut self, payload: &[u8]) -> Result<MessageBuffer, NoiseError> {")
	} else {
		w.Line("pub fn recv_message(&mut self, mb: &MessageBuffer) -> Result<Vec<u8>, NoiseError> {")
		arg, own, peer, result = "mb", "cs2", "cs1", "plaintext"
	}
	w.Indent()
	w.Line("let %s = match self.mc {", result)
	w.Indent()
	hs := ir.Handshake()
	for i := range hs {
		m := &hs[i]
		if !m.Final {
			w.Line("%d => self.hs.%s(%s)?,", i, method(path, m), arg)
			continue
		}
		w.Line("%d => {", i)
		w.Indent()
		w.Line("let (h, %s, cs1, cs2) = self.hs.%s(%s)?;", result, method(path, m), arg)
		w.Line("self.h = h;")
		w.Line("self.cs1 = cs1;")
		w.Line("self.cs2 = cs2;")
		w.Line("%s", result)
		w.Dedent()
		w.Line("}")
	}
	w.Line("_ => {")
	w.Indent()
	w.Line("if self.i {")
	w.Line("    %s_message_regular(&mut self.%s, %s)?", path, own, arg)
	w.Line("} else {")
	w.Line("    %s_message_regular(&mut self.%s, %s)?", path, peer, arg)
	w.Line("}")
	w.Dedent()
	w.Line("}")
	w.Dedent()
	w.Line("};")
	w.Line("self.mc += 1;")
	w.Line("Ok(%s)", result)
	w.Dedent()
	w.Line("}")
}
