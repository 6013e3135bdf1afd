package vector

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noisec/internal/catalog"
	"noisec/internal/diag"
	"noisec/internal/parser"
	"noisec/internal/sema"
)

func analyze(t *testing.T, name string) *sema.IR {
	t.Helper()
	src, ok := catalog.Source(name)
	require.True(t, ok, "catalog has no %s", name)
	spec, err := parser.ParseString(catalog.Path(name), src)
	require.NoError(t, err)
	ir, err := sema.Analyze(spec, sema.Options{Reporter: diag.NopReporter{}})
	require.NoError(t, err)
	return ir
}

func TestFixtureDecodes(t *testing.T) {
	fx := DefaultFixture()
	assert.Equal(t, "John Galt", string(fx.Prologue))
	assert.Equal(t, "This is my Austrian perspective!", string(fx.PSK[:]))
	require.Len(t, fx.Payloads, 6)
	assert.Equal(t, "Ludwig von Mises", string(fx.Payload(0)))
	assert.Equal(t, fx.Payload(0), fx.Payload(6))
}

func TestMessageCount(t *testing.T) {
	assert.Equal(t, 6, MessageCount(1))
	assert.Equal(t, 6, MessageCount(3))
	assert.Equal(t, 6, MessageCount(4))
	assert.Equal(t, 7, MessageCount(5))
}

func TestComputeMessageLengths(t *testing.T) {
	cases := []struct {
		name string
		// overhead of each handshake message beyond its payload
		overhead []int
	}{
		{"NN", []int{32, 32 + 16}},
		{"XX", []int{32, 32 + 48 + 16, 48 + 16}},
		{"IK", []int{32 + 48 + 16, 32 + 16}},
		{"N", []int{32 + 16}},
		{"NNpsk0", []int{32 + 16, 32 + 16}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ir := analyze(t, tc.name)
			v, err := Compute(ir, DefaultFixture())
			require.NoError(t, err)
			require.Len(t, v.Messages, MessageCount(len(tc.overhead)))
			for i, m := range v.Messages {
				want := len(m.Payload) + 16
				if i < len(tc.overhead) {
					want = len(m.Payload) + tc.overhead[i]
				}
				assert.Equal(t, want, len(m.Wire), "message %s", m.Letter)
			}
			assert.NotEqual(t, [32]byte{}, v.HandshakeHash)
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	ir := analyze(t, "XK")
	a, err := Compute(ir, DefaultFixture())
	require.NoError(t, err)
	b, err := Compute(ir, DefaultFixture())
	require.NoError(t, err)
	assert.Equal(t, a.Messages, b.Messages)
	assert.Equal(t, a.HandshakeHash, b.HandshakeHash)
}

func TestFirstMessageCarriesInitiatorEphemeral(t *testing.T) {
	ir := analyze(t, "NN")
	fx := DefaultFixture()
	v, err := Compute(ir, fx)
	require.NoError(t, err)
	pub, err := PublicKey(fx.InitEphemeral)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(pub[:]), hex.EncodeToString(v.Messages[0].Wire[:32]))
	// NN's first payload travels in clear
	assert.Equal(t, fx.Payload(0), v.Messages[0].Wire[32:])
}

func TestOneWayTransportFromInitiator(t *testing.T) {
	ir := analyze(t, "K")
	v, err := Compute(ir, DefaultFixture())
	require.NoError(t, err)
	for _, m := range v.Messages {
		assert.Equal(t, "initiator", m.Sender.String(), "message %s", m.Letter)
	}
}

func TestCrossCheckCatalog(t *testing.T) {
	for _, name := range catalog.Names() {
		t.Run(name, func(t *testing.T) {
			ir := analyze(t, name)
			v, err := Compute(ir, DefaultFixture())
			require.NoError(t, err)
			err = CrossCheck(ir, v)
			if errors.Is(err, ErrUnsupported) {
				t.Skip("reference cannot express pattern")
			}
			require.NoError(t, err)
		})
	}
}

func TestCrossCheckPSKPlacement(t *testing.T) {
	for _, name := range []string{"NNpsk0", "NNpsk2", "IKpsk2", "XXpsk3", "Npsk0"} {
		t.Run(name, func(t *testing.T) {
			ir := analyze(t, name)
			v, err := Compute(ir, DefaultFixture())
			require.NoError(t, err)
			assert.NoError(t, CrossCheck(ir, v))
		})
	}
}

func TestCrossCheckDetectsTampering(t *testing.T) {
	ir := analyze(t, "XX")
	v, err := Compute(ir, DefaultFixture())
	require.NoError(t, err)
	v.Messages[1].Wire[40] ^= 0x01
	assert.Error(t, CrossCheck(ir, v))
}

func TestJSONExport(t *testing.T) {
	ir := analyze(t, "NNpsk0")
	v, err := Compute(ir, DefaultFixture())
	require.NoError(t, err)
	out, err := JSON([]*Vector{v})
	require.NoError(t, err)

	var doc struct {
		Vectors []struct {
			ProtocolName string   `json:"protocol_name"`
			InitPSKs     []string `json:"init_psks"`
			Messages     []struct {
				Payload    string `json:"payload"`
				Ciphertext string `json:"ciphertext"`
			} `json:"messages"`
		} `json:"vectors"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Vectors, 1)
	assert.Equal(t, "Noise_NNpsk0_25519_ChaChaPoly_BLAKE2s", doc.Vectors[0].ProtocolName)
	assert.Len(t, doc.Vectors[0].InitPSKs, 1)
	assert.Len(t, doc.Vectors[0].Messages, 6)
	assert.Equal(t, "4c756477696720766f6e204d69736573", doc.Vectors[0].Messages[0].Payload)
}

func TestYAMLExport(t *testing.T) {
	ir := analyze(t, "NN")
	v, err := Compute(ir, DefaultFixture())
	require.NoError(t, err)
	out, err := YAML([]*Vector{v})
	require.NoError(t, err)
	assert.Contains(t, string(out), "protocol_name: Noise_NN_25519_ChaChaPoly_BLAKE2s")
	assert.NotContains(t, string(out), "init_psks")
}
