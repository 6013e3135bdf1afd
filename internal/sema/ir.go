package sema

import (
	"noisec/internal/pattern"
	"noisec/internal/source"
)

// Suite names the fixed cryptographic suite of every generated artefact.
const Suite = "25519_ChaChaPoly_BLAKE2s"

// Step is the effect of one token.
type Step struct {
	Token pattern.Token
	Span  source.Span
	// MixHash is set when the token feeds the transcript hash.
	MixHash bool
	// MixKey is set when the token feeds the chaining key.
	MixKey bool
	// Encrypted applies to s: the static key travels encrypted.
	Encrypted bool
}

// Message is the key state around one message.
type Message struct {
	Index     int
	Letter    string
	Sender    pattern.Role
	Receiver  pattern.Role
	Transport bool
	Steps     []Step

	KnownBefore Knowledge
	KnownAfter  Knowledge

	// MixedHash/MixedKey summarise the steps; every handshake payload is hashed.
	MixedHash        bool
	MixedKey         bool
	PayloadEncrypted bool
	// Final marks the last handshake message; both sides split after it.
	Final bool

	Span source.Span
}

// Has reports whether the message carries token t.
func (m *Message) Has(t pattern.Token) bool {
	for i := range m.Steps {
		if m.Steps[i].Token == t {
			return true
		}
	}
	return false
}

// PreKey is one pre-message key in transcript hash order.
type PreKey struct {
	Role   pattern.Role
	Token  pattern.Token
	MixKey bool
}

// IR is the key-state view of a validated pattern. Backends read it, never
// the raw pattern text.
type IR struct {
	Pattern      *pattern.Spec
	ProtocolName string
	UsesPSK      bool
	OneWay       bool
	PreKeys      []PreKey
	Initial      Knowledge
	Messages     []Message
}

// Handshake returns the handshake messages (transport excluded).
func (ir *IR) Handshake() []Message {
	n := ir.Pattern.HandshakeLen()
	return ir.Messages[:n]
}

// FinalIndex is the index of the message after which both sides split.
func (ir *IR) FinalIndex() int {
	return ir.Pattern.HandshakeLen() - 1
}

// HasStatic reports whether role owns a static key at any point.
func (ir *IR) HasStatic(role pattern.Role) bool {
	return ir.Pattern.Sends(role, pattern.S)
}

// PreEphemeral reports whether role's ephemeral key is a pre-message key.
func (ir *IR) PreEphemeral(role pattern.Role) bool {
	return ir.Pattern.PreKnows(role, pattern.E)
}

// PreStatic reports whether role's static key is known to the peer up front.
func (ir *IR) PreStatic(role pattern.Role) bool {
	return ir.Pattern.PreKnows(role, pattern.S)
}

// Sender of wire message i, including transport messages beyond the
// pattern: one-way patterns always send from the initiator, others alternate.
func (ir *IR) Sender(i int) pattern.Role {
	if i < len(ir.Messages) {
		return ir.Messages[i].Sender
	}
	if ir.OneWay || i%2 == 0 {
		return pattern.Initiator
	}
	return pattern.Responder
}
