package sema

import (
	"errors"
	"testing"

	"noisec/internal/catalog"
	"noisec/internal/diag"
	"noisec/internal/parser"
	"noisec/internal/pattern"
	"noisec/internal/source"
)

func analyzeText(t *testing.T, text string) (*IR, error, *diag.Bag) {
	t.Helper()
	spec, err := parser.ParseString("test.noise", text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bag := diag.NewBag(32)
	ir, err := Analyze(spec, Options{Reporter: diag.BagReporter{Bag: bag}})
	return ir, err, bag
}

func TestAnalyzeCatalogPatterns(t *testing.T) {
	for _, name := range catalog.Names() {
		t.Run(name, func(t *testing.T) {
			src, _ := catalog.Source(name)
			ir, err, bag := analyzeText(t, src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %v", bag.Items()[0].Message)
			}
			if len(ir.Messages) != len(ir.Pattern.Messages) {
				t.Fatalf("IR has %d messages, pattern %d", len(ir.Messages), len(ir.Pattern.Messages))
			}
			finals := 0
			for i := range ir.Messages {
				m := &ir.Messages[i]
				if m.Final {
					finals++
				}
				for k := range m.KnownBefore {
					if m.KnownAfter[k]&m.KnownBefore[k] != m.KnownBefore[k] {
						t.Fatalf("message %s loses knowledge for %v", m.Letter, pattern.Role(k))
					}
				}
				if i+1 < len(ir.Messages) && ir.Messages[i+1].KnownBefore != m.KnownAfter {
					t.Fatalf("message %s does not start from what %s ended with", ir.Messages[i+1].Letter, m.Letter)
				}
			}
			if finals != 1 || !ir.Messages[ir.FinalIndex()].Final {
				t.Fatalf("expected exactly one final handshake message")
			}
		})
	}
}

func TestAnalyzeNXKnowledge(t *testing.T) {
	ir, err, _ := analyzeText(t, "NX:\n  -> e\n  <- e, ee, s, es\n  ->\n  <-\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir.ProtocolName != "Noise_NX_25519_ChaChaPoly_BLAKE2s" {
		t.Fatalf("protocol name = %s", ir.ProtocolName)
	}
	b := ir.Messages[1]
	if got := b.KnownAfter.Of(pattern.Initiator).String(); got != "{e, rs, re, ee, es}" {
		t.Errorf("initiator after B = %s", got)
	}
	if got := b.KnownAfter.Of(pattern.Responder).String(); got != "{s, e, re, ee, es}" {
		t.Errorf("responder after B = %s", got)
	}
	if got := b.KnownBefore.Of(pattern.Responder).String(); got != "{re}" {
		t.Errorf("responder before B = %s", got)
	}
	if !b.Steps[2].Encrypted || !b.PayloadEncrypted || !b.Final || !b.MixedKey {
		t.Errorf("message B flags = %+v", b)
	}
	a := ir.Messages[0]
	if a.PayloadEncrypted || a.MixedKey || !a.MixedHash {
		t.Errorf("message A flags = %+v", a)
	}
	if !ir.Messages[2].Transport || ir.Messages[2].Final {
		t.Errorf("message C must be transport")
	}
}

func TestAnalyzePreKeysAndPSK(t *testing.T) {
	src, _ := catalog.Source("KKpsk0")
	ir, err, _ := analyzeText(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.PreKeys) != 2 || ir.PreKeys[0].Role != pattern.Initiator || ir.PreKeys[1].Role != pattern.Responder {
		t.Fatalf("pre-keys = %+v", ir.PreKeys)
	}
	if !ir.UsesPSK {
		t.Fatalf("UsesPSK = false")
	}
	a := ir.Messages[0]
	if a.Steps[0].Token != pattern.PSK || !a.Steps[0].MixKey || !a.Steps[1].MixKey {
		t.Fatalf("psk/e steps must mix key: %+v", a.Steps)
	}
	if !a.PayloadEncrypted {
		t.Fatalf("payload after psk must be encrypted")
	}
	if !ir.Initial.Of(pattern.Initiator).Has(RemoteStatic) || !ir.Initial.Of(pattern.Responder).Has(LocalStatic) {
		t.Fatalf("initial knowledge = %v", ir.Initial)
	}
}

func TestAnalyzeCausalityErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		code    diag.Code
		message int
		tokIdx  int
		token   pattern.Token
	}{
		{"es without responder static", "NN:\n  -> e, es\n  <- e, ee\n", diag.SemaDHPrerequisite, 0, 1, pattern.ES},
		{"ee before responder e", "NN:\n  -> e, ee\n  <- e\n", diag.SemaDHPrerequisite, 0, 1, pattern.EE},
		{"se without initiator static", "NN:\n  -> e\n  <- e, ee, se\n", diag.SemaDHPrerequisite, 1, 2, pattern.SE},
		{"duplicate ephemeral", "NN:\n  -> e, e\n  <- e, ee\n", diag.SemaDuplicateEphemeral, 0, 1, pattern.E},
		{"duplicate static", "XX:\n  -> e, s\n  <- e, ee\n  -> s, se\n", diag.SemaDuplicateStatic, 2, 0, pattern.S},
		{"duplicate dh", "NN:\n  -> e\n  <- e, ee, ee\n", diag.SemaDuplicateDH, 1, 2, pattern.EE},
		{"psk undeclared", "NN:\n  -> psk, e\n  <- e, ee\n", diag.SemaPskUndeclared, 0, 0, pattern.PSK},
		{"psk misplaced", "NNpsk0:\n  -> e, psk\n  <- e, ee\n", diag.SemaPskPlacement, 0, 1, pattern.PSK},
		{"direction", "NN:\n  -> e\n  -> e\n", diag.SemaDirection, 1, -1, pattern.E},
		{"one-way reply", "N:\n  <- s\n  ...\n  -> e, es\n  <- e, ee\n", diag.SemaOneWayReply, 1, -1, pattern.E},
		{"psk without ephemeral", "NNpsk0:\n  -> psk, s\n  <- e, ee\n", diag.SemaPskWithoutEphemeral, 0, -1, pattern.E},
		{"unused modifier", "NNpsk2:\n  -> e\n  <- e, ee\n", diag.SemaPskModifierUnused, -1, -1, pattern.E},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ir, err, _ := analyzeText(t, tt.text)
			if ir != nil {
				t.Fatalf("expected nil IR on error")
			}
			var ce *CausalityError
			if !errors.As(err, &ce) || !errors.Is(err, ErrCausality) {
				t.Fatalf("expected *CausalityError, got %T %v", err, err)
			}
			if ce.Diag.Code != tt.code {
				t.Fatalf("code = %s (%s), want %s", ce.Diag.Code.ID(), ce.Diag.Message, tt.code.ID())
			}
			if ce.Message != tt.message || ce.TokenIndex != tt.tokIdx {
				t.Fatalf("location = message %d token %d, want %d/%d", ce.Message, ce.TokenIndex, tt.message, tt.tokIdx)
			}
			if tt.tokIdx >= 0 && ce.Token != tt.token {
				t.Fatalf("token = %s, want %s", ce.Token, tt.token)
			}
		})
	}
}

func TestAnalyzeUndeclaredPSKSuggestsName(t *testing.T) {
	_, err, bag := analyzeText(t, "NN:\n  -> e\n  <- e, ee, psk\n")
	if err == nil {
		t.Fatalf("expected error")
	}
	d := bag.First(diag.SevError)
	if d == nil || d.Message != "psk token in a pattern without psk modifier; name it NNpsk2" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if len(d.Notes) != 1 {
		t.Fatalf("expected a note on the pattern name")
	}
}

func TestAnalyzeWeakStaticEncryptionWarns(t *testing.T) {
	ir, err, bag := analyzeText(t, "NX:\n  -> e\n  <- s, es\n")
	if err != nil {
		t.Fatalf("warning must not fail analysis: %v", err)
	}
	if ir == nil || !bag.HasWarnings() || bag.HasErrors() {
		t.Fatalf("expected a warning only, got %d diagnostics", bag.Len())
	}
	if got := bag.Items()[0].Code; got != diag.SemaWeakStaticEncryption {
		t.Fatalf("code = %s", got.ID())
	}
}

func TestAnalyzeErrorSpanPointsAtToken(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("bad.noise", []byte("NN:\n  -> e, es\n  <- e, ee\n"))
	spec, err := parser.ParseFile(fs, id, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bag := diag.NewBag(8)
	if _, err := Analyze(spec, Options{Reporter: diag.BagReporter{Bag: bag}}); err == nil {
		t.Fatalf("expected causality error")
	}
	want := "error SEM3001 bad.noise:2:9 es requires the responder's static key, which the initiator does not know yet"
	if got := diag.FormatGoldenDiagnostics(bag.Items(), fs, false); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}
