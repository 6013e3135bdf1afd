package testgen

import (
	"errors"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noisec/internal/backend"
	"noisec/internal/backend/golang"
	"noisec/internal/backend/rust"
	"noisec/internal/catalog"
	"noisec/internal/diag"
	noiseparser "noisec/internal/parser"
	"noisec/internal/sema"
	"noisec/internal/vector"
)

func setup(t *testing.T, name string) (*sema.IR, *vector.Vector) {
	t.Helper()
	src, ok := catalog.Source(name)
	require.True(t, ok)
	spec, err := noiseparser.ParseString(catalog.Path(name), src)
	require.NoError(t, err)
	ir, err := sema.Analyze(spec, sema.Options{Reporter: diag.NopReporter{}})
	require.NoError(t, err)
	v, err := vector.Compute(ir, vector.DefaultFixture())
	require.NoError(t, err)
	return ir, v
}

func goSource(t *testing.T, ir *sema.IR) string {
	t.Helper()
	fs, err := golang.Generate(ir)
	require.NoError(t, err)
	out, err := golang.Assemble(ir, fs)
	require.NoError(t, err)
	return string(out[0].Content)
}

func rustSource(t *testing.T, ir *sema.IR) string {
	t.Helper()
	fs, err := rust.Generate(ir)
	require.NoError(t, err)
	out, err := rust.Assemble(ir, fs)
	require.NoError(t, err)
	return string(out[0].Content)
}

func TestGoHarnessParses(t *testing.T) {
	for _, name := range []string{"NN", "XX", "IKpsk2", "N", "X1K1"} {
		t.Run(name, func(t *testing.T) {
			ir, v := setup(t, name)
			harness, err := Go(ir, goSource(t, ir), v)
			require.NoError(t, err)
			_, err = parser.ParseFile(token.NewFileSet(), "h_test.go", harness, 0)
			require.NoError(t, err, harness)
			assert.Contains(t, harness, "func TestHandshakeMatchesVectors(t *testing.T)")
			assert.Equal(t, len(v.Messages), strings.Count(harness, "{initiatorSends: "))
		})
	}
}

func TestGoHarnessSessionArguments(t *testing.T) {
	ir, v := setup(t, "IKpsk2")
	harness, err := Go(ir, goSource(t, ir), v)
	require.NoError(t, err)
	assert.Contains(t, harness, "initiator := InitSession(true, prologue, initStatic, respStatic.PublicKey, psk)")
	assert.Contains(t, harness, "responder := InitSession(false, prologue, respStatic, [32]byte{}, psk)")
}

func TestRustHarness(t *testing.T) {
	ir, v := setup(t, "KK")
	harness, err := Rust(ir, rustSource(t, ir), v)
	require.NoError(t, err)
	assert.Contains(t, harness, "use kk::*;")
	assert.Contains(t, harness, "let mut initiator = NoiseSession::init_session(true, &prologue, init_static.clone(), resp_static.public_key);")
	assert.Contains(t, harness, "const VECTOR_HANDSHAKE_LEN: usize = 2;")
	assert.Equal(t, strings.Count(harness, "{"), strings.Count(harness, "}"))
}

func TestMissingDeclaration(t *testing.T) {
	ir, v := setup(t, "NN")
	src := strings.Replace(goSource(t, ir), "func InitSession(", "func initSession(", 1)
	_, err := Go(ir, src, v)
	var pe *backend.PreconditionError
	require.True(t, errors.As(err, &pe), "err = %v", err)
	assert.Equal(t, diag.GenSourceMissingDecl, pe.Diag.Code)

	_, err = Rust(ir, "fn main() {}", v)
	assert.ErrorIs(t, err, backend.ErrPrecondition)
}

func TestPaths(t *testing.T) {
	ir, _ := setup(t, "NNpsk0")
	g, r := Paths(ir)
	assert.Equal(t, "go/NNpsk0/nnpsk0_test.go", g)
	assert.Equal(t, "rs/NNpsk0/tests/handshake.rs", r)
}
