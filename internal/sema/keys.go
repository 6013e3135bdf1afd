package sema

import (
	"strings"

	"noisec/internal/pattern"
)

// KeyMaterial is one item a role may know during a handshake.
type KeyMaterial uint8

const (
	LocalStatic KeyMaterial = iota
	LocalEphemeral
	RemoteStatic
	RemoteEphemeral
	SharedEE
	SharedES
	SharedSE
	SharedSS
	PresharedKey

	numKeyMaterial
)

var keyMaterialNames = [...]string{
	LocalStatic:     "s",
	LocalEphemeral:  "e",
	RemoteStatic:    "rs",
	RemoteEphemeral: "re",
	SharedEE:        "ee",
	SharedES:        "es",
	SharedSE:        "se",
	SharedSS:        "ss",
	PresharedKey:    "psk",
}

func (k KeyMaterial) String() string {
	if k < numKeyMaterial {
		return keyMaterialNames[k]
	}
	return "?"
}

// local/remote map a public-key token to the material its owner and peer hold.
func local(t pattern.Token) KeyMaterial {
	if t == pattern.E {
		return LocalEphemeral
	}
	return LocalStatic
}

func remote(t pattern.Token) KeyMaterial {
	if t == pattern.E {
		return RemoteEphemeral
	}
	return RemoteStatic
}

// shared maps a DH token to its shared secret.
func shared(t pattern.Token) KeyMaterial {
	switch t {
	case pattern.EE:
		return SharedEE
	case pattern.ES:
		return SharedES
	case pattern.SE:
		return SharedSE
	case pattern.SS:
		return SharedSS
	}
	panic("sema: shared on non-DH token " + t.String())
}

// KeySet is a set of KeyMaterial.
type KeySet uint16

func (s KeySet) Has(k KeyMaterial) bool { return s&(1<<k) != 0 }

func (s KeySet) With(k KeyMaterial) KeySet { return s | 1<<k }

// Items lists members in declaration order.
func (s KeySet) Items() []KeyMaterial {
	var out []KeyMaterial
	for k := range numKeyMaterial {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KeySet) String() string {
	items := s.Items()
	parts := make([]string, len(items))
	for i, k := range items {
		parts[i] = k.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (s KeySet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Knowledge is the key material each role holds, indexed by pattern.Role.
type Knowledge [2]KeySet

func (k Knowledge) Of(r pattern.Role) KeySet { return k[r] }
