package golang

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"noisec/internal/backend"
	"noisec/internal/catalog"
	"noisec/internal/diag"
	noiseparser "noisec/internal/parser"
	"noisec/internal/sema"
)

func analyze(t *testing.T, name string) *sema.IR {
	t.Helper()
	src, ok := catalog.Source(name)
	if !ok {
		t.Fatalf("catalog has no %s", name)
	}
	spec, err := noiseparser.ParseString(catalog.Path(name), src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ir, err := sema.Analyze(spec, sema.Options{Reporter: diag.NopReporter{}})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return ir
}

func source(t *testing.T, name string) (string, string) {
	t.Helper()
	ir := analyze(t, name)
	fs, err := Generate(ir)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out, err := Assemble(ir, fs)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d files", len(out))
	}
	return string(out[0].Content), string(out[1].Content)
}

// funcs parses src as Go and returns its top-level function names.
func funcs(t *testing.T, src string) map[string]bool {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.SkipObjectResolution)
	if err != nil {
		t.Fatalf("generated Go does not parse: %v\n%s", err, src)
	}
	out := make(map[string]bool)
	for _, d := range f.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			out[fn.Name.Name] = true
		}
	}
	return out
}

func TestEveryCatalogPatternParses(t *testing.T) {
	for _, name := range catalog.Names() {
		t.Run(name, func(t *testing.T) {
			src, _ := source(t, name)
			fns := funcs(t, src)
			ir := analyze(t, name)
			for _, m := range ir.Handshake() {
				for _, fn := range []string{"writeMessage" + m.Letter, "readMessage" + m.Letter} {
					if !fns[fn] {
						t.Errorf("missing %s", fn)
					}
				}
			}
			for _, fn := range []string{"InitSession", "SendMessage", "RecvMessage", "initializeInitiator", "initializeResponder"} {
				if !fns[fn] {
					t.Errorf("missing %s", fn)
				}
			}
		})
	}
}

func TestNoTransportBlocks(t *testing.T) {
	src, _ := source(t, "NN")
	if strings.Contains(src, "writeMessageC") || strings.Contains(src, "readMessageD") {
		t.Fatal("transport messages must use writeMessageRegular")
	}
}

func TestPackageAndModule(t *testing.T) {
	src, mod := source(t, "XXpsk3")
	if !strings.Contains(src, "\npackage xxpsk3\n") {
		t.Fatal("package clause missing")
	}
	if !strings.HasPrefix(mod, "module xxpsk3\n") {
		t.Fatalf("go.mod = %q", mod)
	}
	if !strings.Contains(src, `initializeSymmetric([]byte("Noise_XXpsk3_25519_ChaChaPoly_BLAKE2s"))`) {
		t.Fatal("protocol name missing")
	}
}

func TestInitSessionSignature(t *testing.T) {
	src, _ := source(t, "KKpsk0")
	if !strings.Contains(src, "func InitSession(initiator bool, prologue []byte, s Keypair, rs [32]byte, psk [32]byte) *NoiseSession {") {
		t.Fatalf("psk signature missing:\n%s", src)
	}
	src, _ = source(t, "NN")
	if !strings.Contains(src, "func InitSession(initiator bool, prologue []byte, s Keypair, rs [32]byte) *NoiseSession {") {
		t.Fatal("plain signature missing")
	}
}

func TestReadPathUsesReceiverKeys(t *testing.T) {
	src, _ := source(t, "NK")
	// es on the responder side: own static with the initiator's ephemeral
	read := src[strings.Index(src, "func (hs *handshakestate) readMessageA"):]
	read = read[:strings.Index(read, "\n}\n")]
	if !strings.Contains(read, "hs.mixDH(hs.s.PrivateKey, hs.re)") {
		t.Fatalf("readMessageA:\n%s", read)
	}
}

func TestBlockKeepsPercent(t *testing.T) {
	w := backend.NewWriter("\t")
	block(w, "err != nil", `return fmt.Errorf("message A: %w", err)`)
	want := "if err != nil {\n\treturn fmt.Errorf(\"message A: %w\", err)\n}\n"
	if got := w.String(); got != want {
		t.Fatalf("got %q", got)
	}
}
