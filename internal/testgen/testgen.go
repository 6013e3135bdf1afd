// Package testgen writes test harnesses for generated implementations. Each
// harness replays the known-answer vector of the pattern against the
// implementation's public API.
package testgen

import (
	"encoding/hex"
	"strings"

	"noisec/internal/assemble"
	"noisec/internal/backend"
	"noisec/internal/diag"
	"noisec/internal/pattern"
	"noisec/internal/sema"
	"noisec/internal/skeleton"
	"noisec/internal/vector"
)

// GoDecls and RustDecls are the declarations each harness calls.
var (
	GoDecls = []string{
		"func InitSession(",
		"func (s *NoiseSession) SendMessage(",
		"func (s *NoiseSession) RecvMessage(",
		"func (s *NoiseSession) SetEphemeralKeypair(",
		"func (s *NoiseSession) HandshakeHash(",
		"func KeypairFromPrivate(",
		"func (mb *MessageBuffer) Bytes(",
	}
	RustDecls = []string{
		"pub fn init_session(",
		"pub fn send_message(",
		"pub fn recv_message(",
		"pub fn set_ephemeral_keypair(",
		"pub fn get_handshake_hash(",
		"pub fn from_private(",
		"pub fn to_bytes(",
	}
)

func requireDecls(kind backend.Kind, source string, decls []string) error {
	for _, d := range decls {
		if !strings.Contains(source, d) {
			return backend.Preconditionf(kind, diag.GenSourceMissingDecl,
				"generated source does not declare %s...)", strings.TrimSuffix(d, "("))
		}
	}
	return nil
}

func hexKey(k [32]byte) string { return hex.EncodeToString(k[:]) }

// Go returns the _test.go harness for source, the generated Go implementation.
func Go(ir *sema.IR, source string, v *vector.Vector) (string, error) {
	if err := requireDecls(backend.Go, source, GoDecls); err != nil {
		return "", err
	}
	ident, _ := ir.Pattern.Identifier()
	frags := map[backend.Slot]string{
		backend.SlotHeader:  backend.Header(ir),
		backend.SlotIdent:   ident,
		backend.SlotVectors: goVectors(ir, v),
		backend.SlotSession: goSessions(ir),
	}
	return assemble.Fill(backend.Go, skeleton.GoTest, skeleton.MustRead(skeleton.GoTest), frags, backend.SlotIdent)
}

// Rust returns the integration test harness for source, the generated crate.
func Rust(ir *sema.IR, source string, v *vector.Vector) (string, error) {
	if err := requireDecls(backend.Rust, source, RustDecls); err != nil {
		return "", err
	}
	ident, _ := ir.Pattern.Identifier()
	frags := map[backend.Slot]string{
		backend.SlotHeader:  backend.Header(ir),
		backend.SlotIdent:   ident,
		backend.SlotVectors: rustVectors(ir, v),
		backend.SlotSession: rustSessions(ir),
	}
	return assemble.Fill(backend.Rust, skeleton.RustTest, skeleton.MustRead(skeleton.RustTest), frags, backend.SlotIdent)
}

func goVectors(ir *sema.IR, v *vector.Vector) string {
	fx := &v.Fixture
	w := backend.NewWriter("\t")
	w.Line("const (")
	w.Indent()
	w.Line("vectorPrologue      = %q", hex.EncodeToString(fx.Prologue))
	w.Line("vectorInitStatic    = %q", hexKey(fx.InitStatic))
	w.Line("vectorRespStatic    = %q", hexKey(fx.RespStatic))
	w.Line("vectorInitEphemeral = %q", hexKey(fx.InitEphemeral))
	w.Line("vectorRespEphemeral = %q", hexKey(fx.RespEphemeral))
	w.Line("vectorPSK           = %q", hexKey(fx.PSK))
	w.Line("vectorHandshakeHash = %q", hexKey(v.HandshakeHash))
	w.Line("vectorHandshakeLen  = %d", len(ir.Handshake()))
	w.Dedent()
	w.Line(")")
	w.Blank()
	w.Line("var vectorMessages = []vectorMessage{")
	w.Indent()
	for _, m := range v.Messages {
		w.Line("{initiatorSends: %t, payload: %q, ciphertext: %q},",
			m.Sender == pattern.Initiator, hex.EncodeToString(m.Payload), hex.EncodeToString(m.Wire))
	}
	w.Dedent()
	w.Line("}")
	return w.String()
}

func rustVectors(ir *sema.IR, v *vector.Vector) string {
	fx := &v.Fixture
	w := backend.NewWriter("    ")
	consts := []struct{ name, value string }{
		{"VECTOR_PROLOGUE", hex.EncodeToString(fx.Prologue)},
		{"VECTOR_INIT_STATIC", hexKey(fx.InitStatic)},
		{"VECTOR_RESP_STATIC", hexKey(fx.RespStatic)},
		{"VECTOR_INIT_EPHEMERAL", hexKey(fx.InitEphemeral)},
		{"VECTOR_RESP_EPHEMERAL", hexKey(fx.RespEphemeral)},
		{"VECTOR_PSK", hexKey(fx.PSK)},
		{"VECTOR_HANDSHAKE_HASH", hexKey(v.HandshakeHash)},
	}
	for _, c := range consts {
		w.Line("#[allow(dead_code)]")
		w.Line("const %s: &str = %q;", c.name, c.value)
	}
	w.Line("const VECTOR_HANDSHAKE_LEN: usize = %d;", len(ir.Handshake()))
	w.Blank()
	w.Line("const VECTOR_MESSAGES: &[VectorMessage] = &[")
	w.Indent()
	for _, m := range v.Messages {
		w.Line("VectorMessage { initiator_sends: %t, payload: %q, ciphertext: %q },",
			m.Sender == pattern.Initiator, hex.EncodeToString(m.Payload), hex.EncodeToString(m.Wire))
	}
	w.Dedent()
	w.Line("];")
	return w.String()
}
