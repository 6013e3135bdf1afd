package parser

import (
	"errors"
	"strings"
	"testing"

	"noisec/internal/diag"
	"noisec/internal/pattern"
	"noisec/internal/source"
)

func parseWithBag(t *testing.T, text string) (*pattern.Spec, error, *diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.noise", []byte(text))
	bag := diag.NewBag(32)
	spec, err := ParseFile(fs, id, Options{Reporter: diag.BagReporter{Bag: bag}})
	return spec, err, bag, fs
}

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil || bag.Len() == 0 {
		return "<none>"
	}
	lines := make([]string, 0, bag.Len())
	for _, d := range bag.Items() {
		lines = append(lines, "["+d.Code.ID()+"] "+d.Message)
	}
	return strings.Join(lines, "; ")
}

func TestParseNX(t *testing.T) {
	spec, err, bag, _ := parseWithBag(t, "NX:\n  -> e\n  <- e, ee, s, es\n  ->\n  <-\n")
	if err != nil {
		t.Fatalf("unexpected error: %v (%s)", err, diagnosticsSummary(bag))
	}
	if spec.Name != "NX" || spec.Base != "NX" || len(spec.Modifiers) != 0 {
		t.Fatalf("name = %q base = %q mods = %v", spec.Name, spec.Base, spec.Modifiers)
	}
	if len(spec.PreMessages) != 0 {
		t.Fatalf("unexpected pre-messages: %+v", spec.PreMessages)
	}
	if len(spec.Messages) != 4 || spec.HandshakeLen() != 2 {
		t.Fatalf("messages = %d handshake = %d", len(spec.Messages), spec.HandshakeLen())
	}
	m1 := spec.Messages[1]
	if m1.Sender != pattern.Responder || m1.Receiver != pattern.Initiator {
		t.Fatalf("message B direction = %s -> %s", m1.Sender, m1.Receiver)
	}
	want := []pattern.Token{pattern.E, pattern.EE, pattern.S, pattern.ES}
	if len(m1.Tokens) != len(want) {
		t.Fatalf("message B tokens = %v", m1.Tokens)
	}
	for i := range want {
		if m1.Tokens[i] != want[i] {
			t.Fatalf("message B token %d = %s, want %s", i, m1.Tokens[i], want[i])
		}
	}
	if !spec.Messages[2].Transport || spec.Messages[3].Sender != pattern.Responder {
		t.Fatalf("transport messages misparsed: %+v", spec.Messages[2:])
	}
}

func TestParsePreMessagesArrowForm(t *testing.T) {
	spec, err, bag, _ := parseWithBag(t, "KK:\n  -> s\n  <- s\n  ...\n  -> e, es, ss\n  <- e, ee, se\n")
	if err != nil {
		t.Fatalf("unexpected error: %v (%s)", err, diagnosticsSummary(bag))
	}
	if len(spec.PreMessages) != 2 {
		t.Fatalf("pre-messages = %+v", spec.PreMessages)
	}
	if !spec.PreKnows(pattern.Initiator, pattern.S) || !spec.PreKnows(pattern.Responder, pattern.S) {
		t.Fatalf("both statics must be pre-known")
	}
	if len(spec.Messages) != 2 {
		t.Fatalf("messages = %d", len(spec.Messages))
	}
}

func TestParseRoleForm(t *testing.T) {
	text := "IKpsk2:\nresponder: s\ninitiator -> responder: e, es, s, ss\nresponder -> initiator: e, ee, se, psk\n"
	spec, err, bag, _ := parseWithBag(t, text)
	if err != nil {
		t.Fatalf("unexpected error: %v (%s)", err, diagnosticsSummary(bag))
	}
	if !spec.UsesPSK() || spec.Modifiers[0].Position != 2 {
		t.Fatalf("modifiers = %+v", spec.Modifiers)
	}
	if !spec.PreKnows(pattern.Responder, pattern.S) {
		t.Fatalf("responder static must be pre-known")
	}
	if got := spec.Messages[1].Tokens[3]; got != pattern.PSK {
		t.Fatalf("last token = %s", got)
	}
}

func TestParseCanonicalRoundTrip(t *testing.T) {
	text := "IK:\n  <- s\n  ...\n  -> e, es, s, ss\n  <- e, ee, se\n  ->\n"
	spec, err := ParseString("IK.noise", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := spec.String(); got != text {
		t.Fatalf("String():\n%s\nwant:\n%s", got, text)
	}
	again, err := ParseString("again", spec.String())
	if err != nil || again.String() != text {
		t.Fatalf("reparse mismatch: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		code diag.Code
		line uint32
		col  uint32
		frag string
	}{
		{"unknown token", "NX:\n  -> e, ex\n", diag.SynUnknownToken, 2, 9, "ex"},
		{"missing arrow", "NN:\n  e\n", diag.SynUnexpectedToken, 2, 3, "e"},
		{"missing name", "-> e\n", diag.SynMissingName, 1, 1, "->"},
		{"bad name", "NQ:\n  -> e\n", diag.SynBadPatternName, 1, 1, "NQ"},
		{"missing colon", "NN\n  -> e\n", diag.SynExpectColon, 1, 3, ""},
		{"pre-message dh", "NK:\n  <- ee\n  ...\n  -> e\n", diag.SynPreMessageToken, 2, 6, "ee"},
		{"duplicate separator", "NK:\n  <- s\n  ...\n  ...\n  -> e, es\n", diag.SynDuplicateSeparator, 4, 3, "..."},
		{"empty mid list", "NN:\n  -> e\n  <-\n  -> e\n", diag.SynEmptyTokenList, 3, 3, "<-"},
		{"only transport", "NN:\n  ->\n", diag.SynNoMessages, 2, 3, "->"},
		{"dangling comma", "NN:\n  -> e,\n", diag.SynExpectToken, 2, 8, ""},
		{"self message", "NN:\ninitiator -> initiator: e\n", diag.SynSameRole, 2, 1, "initiator -> initiator"},
		{"role premessage late", "NK:\ninitiator -> responder: e\nresponder: s\n", diag.SynPreMessageAfterStart, 3, 1, "responder"},
		{"duplicate premessage", "KK:\n  -> s\n  -> e\n  ...\n  -> e\n", diag.SynDuplicatePreMessage, 3, 3, "-> e"},
		{"trailing junk", "NN:\n  -> e e\n", diag.SynUnexpectedToken, 2, 8, "e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err, bag, _ := parseWithBag(t, tt.text)
			if spec != nil {
				t.Fatalf("expected nil spec on error")
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %T %v", err, err)
			}
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("errors.Is(err, ErrSyntax) = false")
			}
			if se.Diag.Code != tt.code {
				t.Fatalf("code = %s, want %s (%s)", se.Diag.Code.ID(), tt.code.ID(), diagnosticsSummary(bag))
			}
			if se.Line != tt.line || se.Col != tt.col {
				t.Fatalf("position = %d:%d, want %d:%d", se.Line, se.Col, tt.line, tt.col)
			}
			if se.Text != tt.frag {
				t.Fatalf("text = %q, want %q", se.Text, tt.frag)
			}
		})
	}
}

func TestParseCollectsAllErrors(t *testing.T) {
	_, err, bag, fs := parseWithBag(t, "XX:\n  -> e, zz\n  <- e, ee, qq\n")
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "error SYN2006 test.noise:2:9 unknown token \"zz\"\n" +
		"error SYN2006 test.noise:3:13 unknown token \"qq\""
	if got := diag.FormatGoldenDiagnostics(bag.Items(), fs, false); got != want {
		t.Fatalf("diagnostics:\n%s\nwant:\n%s", got, want)
	}
}

func TestParseBadOnlyMessage(t *testing.T) {
	_, err, bag, _ := parseWithBag(t, "NN:\n  -> zz\n")
	if err == nil {
		t.Fatalf("expected error")
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.SynUnknownToken {
		t.Fatalf("diagnostics: %s", diagnosticsSummary(bag))
	}
}

func TestParseMaxErrors(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m", []byte("XX:\n  -> a\n  <- b\n  -> c\n"))
	bag := diag.NewBag(32)
	_, err := ParseFile(fs, id, Options{MaxErrors: 1, Reporter: diag.BagReporter{Bag: bag}})
	if err == nil || bag.Len() != 1 {
		t.Fatalf("err = %v, diagnostics = %d", err, bag.Len())
	}
}
