package testgen

import (
	"fmt"
	"strings"

	"noisec/internal/backend"
	"noisec/internal/pattern"
	"noisec/internal/sema"
)

// sessionArgs returns the InitSession arguments after initiator and
// prologue for role, in the order the implementation backends declare them.
func sessionArgs(ir *sema.IR, role pattern.Role, static, peerStatic, zero, psk, eph, peerEph string) []string {
	args := []string{static}
	if ir.PreStatic(role.Peer()) {
		args = append(args, peerStatic)
	} else {
		args = append(args, zero)
	}
	if ir.UsesPSK {
		args = append(args, psk)
	}
	if ir.PreEphemeral(pattern.Initiator) || ir.PreEphemeral(pattern.Responder) {
		args = append(args, eph, peerEph)
	}
	return args
}

func goSessions(ir *sema.IR) string {
	w := backend.NewWriter("\t")
	w.Line("func newSessions(t *testing.T) (*NoiseSession, *NoiseSession) {")
	w.Indent()
	w.Line("t.Helper()")
	w.Line("prologue := decodeHex(t, vectorPrologue)")
	w.Line("initStatic, respStatic := keypair(t, vectorInitStatic), keypair(t, vectorRespStatic)")
	w.Line("initEphemeral, respEphemeral := keypair(t, vectorInitEphemeral), keypair(t, vectorRespEphemeral)")
	if ir.UsesPSK {
		w.Line("var psk [32]byte")
		w.Line("copy(psk[:], decodeHex(t, vectorPSK))")
	}
	ini := sessionArgs(ir, pattern.Initiator, "initStatic", "respStatic.PublicKey", "[32]byte{}", "psk",
		"initEphemeral", "respEphemeral.PublicKey")
	rsp := sessionArgs(ir, pattern.Responder, "respStatic", "initStatic.PublicKey", "[32]byte{}", "psk",
		"respEphemeral", "initEphemeral.PublicKey")
	w.Line("initiator := InitSession(true, prologue, %s)", strings.Join(ini, ", "))
	w.Line("responder := InitSession(false, prologue, %s)", strings.Join(rsp, ", "))
	w.Line("initiator.SetEphemeralKeypair(initEphemeral)")
	w.Line("responder.SetEphemeralKeypair(respEphemeral)")
	w.Line("return initiator, responder")
	w.Dedent()
	w.Line("}")
	return w.String()
}

func rustSessions(ir *sema.IR) string {
	w := backend.NewWriter("    ")
	w.Line("fn new_sessions() -> (NoiseSession, NoiseSession) {")
	w.Indent()
	w.Line("let prologue = hex::decode(VECTOR_PROLOGUE).unwrap();")
	w.Line("let init_static = keypair(VECTOR_INIT_STATIC);")
	w.Line("let resp_static = keypair(VECTOR_RESP_STATIC);")
	w.Line("let init_ephemeral = keypair(VECTOR_INIT_EPHEMERAL);")
	w.Line("let resp_ephemeral = keypair(VECTOR_RESP_EPHEMERAL);")
	if ir.UsesPSK {
		w.Line("let mut psk = [0u8; DHLEN];")
		w.Line("psk.copy_from_slice(&hex::decode(VECTOR_PSK).unwrap());")
	}
	ini := sessionArgs(ir, pattern.Initiator, "init_static.clone()", "resp_static.public_key", "[0u8; DHLEN]", "psk",
		"init_ephemeral.clone()", "resp_ephemeral.public_key")
	rsp := sessionArgs(ir, pattern.Responder, "resp_static.clone()", "init_static.public_key", "[0u8; DHLEN]", "psk",
		"resp_ephemeral.clone()", "init_ephemeral.public_key")
	w.Line("let mut initiator = NoiseSession::init_session(true, &prologue, %s);", strings.Join(ini, ", "))
	w.Line("let mut responder = NoiseSession::init_session(false, &prologue, %s);", strings.Join(rsp, ", "))
	w.Line("initiator.set_ephemeral_keypair(init_ephemeral);")
	w.Line("responder.set_ephemeral_keypair(resp_ephemeral);")
	w.Line("(initiator, responder)")
	w.Dedent()
	w.Line("}")
	return w.String()
}

// Paths returns where each harness is written, relative to the output root.
func Paths(ir *sema.IR) (goPath, rustPath string) {
	ident, _ := ir.Pattern.Identifier()
	return fmt.Sprintf("go/%s/%s_test.go", ir.Pattern.Name, ident),
		fmt.Sprintf("rs/%s/tests/handshake.rs", ir.Pattern.Name)
}
