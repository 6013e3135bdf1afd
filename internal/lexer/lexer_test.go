package lexer_test

import (
	"strings"
	"testing"

	"noisec/internal/diag"
	"noisec/internal/lexer"
	"noisec/internal/source"
	"noisec/internal/token"
)

func lexAll(t *testing.T, text string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.noise", []byte(text))
	bag := diag.NewBag(16)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx.All(), bag
}

func kinds(toks []token.Token) string {
	parts := make([]string, 0, len(toks))
	for _, tk := range toks {
		switch tk.Kind {
		case token.Ident:
			parts = append(parts, tk.Text)
		case token.Newline:
			parts = append(parts, "NL")
		default:
			parts = append(parts, tk.Kind.String())
		}
	}
	return strings.Join(parts, " ")
}

func TestLexNoiseNotation(t *testing.T) {
	toks, bag := lexAll(t, "IK:\n  <- s\n  ...\n  -> e, es, s, ss\n  <- e, ee, se\n")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	want := "IK : NL <- s NL ... NL -> e , es , s , ss NL <- e , ee , se NL EOF"
	if got := kinds(toks); got != want {
		t.Fatalf("tokens:\n got %s\nwant %s", got, want)
	}
}

func TestLexRoleNotationAndModifiers(t *testing.T) {
	toks, bag := lexAll(t, "NNpsk0+psk2:\ninitiator -> responder: psk, e\n")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	want := "NNpsk0+psk2 : NL initiator -> responder : psk , e NL EOF"
	if got := kinds(toks); got != want {
		t.Fatalf("tokens:\n got %s\nwant %s", got, want)
	}
}

func TestLexFoldsBlankAndCommentLines(t *testing.T) {
	toks, _ := lexAll(t, "N:\n\n  // comment\n# another\n\n  <- s\n")
	want := "N : NL <- s NL EOF"
	if got := kinds(toks); got != want {
		t.Fatalf("tokens:\n got %s\nwant %s", got, want)
	}
	// indentation before the arrow is kept as leading trivia
	toks, _ = lexAll(t, "N:\n  // lead\n  -> e\n")
	for _, tk := range toks {
		if tk.Kind == token.Arrow && len(tk.Leading) == 0 {
			t.Fatalf("expected leading trivia on arrow")
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		code diag.Code
	}{
		{"half arrow", "N:\n - e\n", diag.LexBadArrow},
		{"left half arrow", "N:\n < e\n", diag.LexBadArrow},
		{"two dots", "N:\n ..\n", diag.LexBadEllipsis},
		{"unicode", "N:\n → e\n", diag.LexUnknownChar},
		{"punct", "N:\n -> e; s\n", diag.LexUnknownChar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := lexAll(t, tt.text)
			if bag.Len() != 1 || bag.Items()[0].Code != tt.code {
				t.Fatalf("diagnostics = %v, want one %s", bag.Items(), tt.code.ID())
			}
			found := false
			for _, tk := range toks {
				if tk.Kind == token.Invalid {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected an Invalid token in %s", kinds(toks))
			}
		})
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("p", []byte("X:"))
	lx := lexer.New(fs.Get(id), lexer.Options{})
	if lx.Peek().Text != "X" || lx.Next().Text != "X" || lx.Next().Kind != token.Colon {
		t.Fatalf("Peek/Next mismatch")
	}
	if !lx.Next().IsEOF() || !lx.Next().IsEOF() {
		t.Fatalf("EOF must be sticky")
	}
}
