package vector

import (
	"encoding/hex"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// exported is the interchange layout used by other Noise test suites: hex
// strings, private keys as inputs, one entry per message.
type exported struct {
	ProtocolName  string            `json:"protocol_name" yaml:"protocol_name"`
	InitPrologue  string            `json:"init_prologue" yaml:"init_prologue"`
	InitStatic    string            `json:"init_static" yaml:"init_static"`
	InitEphemeral string            `json:"init_ephemeral" yaml:"init_ephemeral"`
	InitPSKs      []string          `json:"init_psks,omitempty" yaml:"init_psks,omitempty"`
	RespPrologue  string            `json:"resp_prologue" yaml:"resp_prologue"`
	RespStatic    string            `json:"resp_static" yaml:"resp_static"`
	RespEphemeral string            `json:"resp_ephemeral" yaml:"resp_ephemeral"`
	RespPSKs      []string          `json:"resp_psks,omitempty" yaml:"resp_psks,omitempty"`
	HandshakeHash string            `json:"handshake_hash" yaml:"handshake_hash"`
	Messages      []exportedMessage `json:"messages" yaml:"messages"`
}

type exportedMessage struct {
	Payload    string `json:"payload" yaml:"payload"`
	Ciphertext string `json:"ciphertext" yaml:"ciphertext"`
}

func (v *Vector) export() exported {
	fx := &v.Fixture
	e := exported{
		ProtocolName:  v.Protocol,
		InitPrologue:  hex.EncodeToString(fx.Prologue),
		InitStatic:    hex.EncodeToString(fx.InitStatic[:]),
		InitEphemeral: hex.EncodeToString(fx.InitEphemeral[:]),
		RespPrologue:  hex.EncodeToString(fx.Prologue),
		RespStatic:    hex.EncodeToString(fx.RespStatic[:]),
		RespEphemeral: hex.EncodeToString(fx.RespEphemeral[:]),
		HandshakeHash: hex.EncodeToString(v.HandshakeHash[:]),
	}
	if v.UsesPSK {
		e.InitPSKs = []string{hex.EncodeToString(fx.PSK[:])}
		e.RespPSKs = e.InitPSKs
	}
	for _, m := range v.Messages {
		e.Messages = append(e.Messages, exportedMessage{
			Payload:    hex.EncodeToString(m.Payload),
			Ciphertext: hex.EncodeToString(m.Wire),
		})
	}
	return e
}

// JSON encodes vectors as {"vectors": [...]}.
func JSON(vs []*Vector) ([]byte, error) {
	doc := struct {
		Vectors []exported `json:"vectors"`
	}{}
	for _, v := range vs {
		doc.Vectors = append(doc.Vectors, v.export())
	}
	return json.MarshalIndent(doc, "", "  ")
}

// YAML encodes vectors the same way as JSON.
func YAML(vs []*Vector) ([]byte, error) {
	doc := struct {
		Vectors []exported `yaml:"vectors"`
	}{}
	for _, v := range vs {
		doc.Vectors = append(doc.Vectors, v.export())
	}
	return yaml.Marshal(doc)
}
