package proverif

import (
	"strings"
	"testing"

	"noisec/internal/catalog"
	"noisec/internal/diag"
	"noisec/internal/parser"
	"noisec/internal/sema"
)

func analyze(t *testing.T, name string) *sema.IR {
	t.Helper()
	src, ok := catalog.Source(name)
	if !ok {
		t.Fatalf("catalog has no %s", name)
	}
	spec, err := parser.ParseString(catalog.Path(name), src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ir, err := sema.Analyze(spec, sema.Options{Reporter: diag.NopReporter{}})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return ir
}

func model(t *testing.T, name string, attacker Attacker) string {
	t.Helper()
	ir := analyze(t, name)
	fs, err := Generate(ir, Options{Attacker: attacker})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out, err := Assemble(ir, attacker, fs)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if out.Path != name+".noise."+string(attacker)+".pv" {
		t.Fatalf("path = %s", out.Path)
	}
	return string(out.Content)
}

func TestModelSections(t *testing.T) {
	pv := model(t, "IK", Active)
	for _, want := range []string{
		"set attacker = active.",
		"letfun initialize_initiator(prologue:bitstring, s:keypair, e:keypair, rs:key, re:key, psk:key) =",
		"let ss = mixHash(ss, key2bit(rs)) in",
		"letfun writeMessage_a(",
		"letfun readMessage_b(",
		"letfun writeMessage_c(",
		"let (cs1:cipherstate, ciphertext:bitstring) = encryptWithAd(cs1, empty, payload) in",
		"let ss = mixKey(ss, dh(e, rs)) in",
		"let ss = mixKey(ss, dh(s, rs)) in",
		"let (cs1:cipherstate, cs2:cipherstate) = split(ss) in",
		"fun msg_a(principal, principal, sessionid):bitstring [private].",
		"let initiator(me:principal, them:principal, sid:sessionid) =",
		"let rs = getpublickey(generate_keypair(key_s(them))) in",
		"!(new sid:sessionid; responder(bob, charlie, sid))",
	} {
		if !strings.Contains(pv, want) {
			t.Errorf("model lacks %q", want)
		}
	}
	if strings.Contains(pv, "$NOISEC_") {
		t.Fatal("unfilled marker left in model")
	}
	if strings.Contains(pv, "key_psk") {
		t.Fatal("non-psk pattern declares psk keys")
	}
}

func TestPassiveModel(t *testing.T) {
	pv := model(t, "NN", Passive)
	if !strings.Contains(pv, "set attacker = passive.") {
		t.Fatal("passive parameter missing")
	}
}

func TestSevenQueriesPerMessage(t *testing.T) {
	ir := analyze(t, "XX")
	fs, err := Generate(ir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	q := fs.Fragments["queries"]
	if got, want := strings.Count(q, "query "), 7*len(ir.Messages); got != want {
		t.Fatalf("%d queries, want %d", got, want)
	}
	if !strings.Contains(q, "query sid:sessionid; attacker(msg_b(bob, alice, sid)) phase 1 ==> event(LeakS(phase0, alice)).") {
		t.Fatalf("conf2 query for message B missing:\n%s", q)
	}
}

func TestPSKModel(t *testing.T) {
	pv := model(t, "NNpsk0", Active)
	for _, want := range []string{
		"fun key_psk(principal, principal):key [private].",
		"let ss = mixKeyAndHash(ss, psk) in",
		"let ss = mixKey(ss, getpublickey(e)) in",
		"let psk = key_psk(them, me) in",
		"event(LeakPsk(phase0, alice, bob))",
		"!leak_psk_phase0(alice, bob)",
	} {
		if !strings.Contains(pv, want) {
			t.Errorf("model lacks %q", want)
		}
	}
}

func TestOneWayProcessesStopAfterLastMessage(t *testing.T) {
	pv := model(t, "N", Active)
	if strings.Contains(pv, "stagepack_c") {
		t.Fatal("one-way N with one transport line has no third message")
	}
	if !strings.Contains(pv, "event RecvMsg(me, them, stagepack_b(sid), plaintext_b)\n") {
		t.Fatal("last receive does not end the branch")
	}
}

func TestEveryCatalogPatternGenerates(t *testing.T) {
	for _, name := range catalog.Names() {
		ir := analyze(t, name)
		fs, err := Generate(ir, Options{})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for i, m := range ir.Messages {
			e := fs.Effects[i]
			if e.WriteBlocks != 1 || e.ReadBlocks != 1 {
				t.Fatalf("%s message %s: %d/%d blocks", name, m.Letter, e.WriteBlocks, e.ReadBlocks)
			}
		}
	}
}

func TestParseAttacker(t *testing.T) {
	if a, err := ParseAttacker("Passive"); err != nil || a != Passive {
		t.Fatalf("ParseAttacker = %v, %v", a, err)
	}
	if _, err := ParseAttacker("eve"); err == nil {
		t.Fatal("expected error")
	}
}
