package pattern

import (
	"strconv"
	"strings"

	"noisec/internal/source"
)

// MaxMessages bounds a pattern so every message has a letter.
const MaxMessages = 8

// Letters names messages A..H, in order. The table is fixed: detail pages and
// model symbols derive from it.
const Letters = "ABCDEFGH"

// Letter returns the upper-case letter of message i. Messages past the
// table (extra transport messages in test vectors) are named M9, M10, ...
func Letter(i int) string {
	if i < len(Letters) {
		return Letters[i : i+1]
	}
	return "M" + strconv.Itoa(i+1)
}

// PreMessage is a public key known out of band before the handshake.
type PreMessage struct {
	Role   Role        `json:"role" yaml:"role"`
	Tokens []Token     `json:"tokens" yaml:"tokens"`
	Span   source.Span `json:"-" yaml:"-"`
}

// Message is one transmitted message. Transport messages carry no tokens and
// follow the handshake.
type Message struct {
	Sender     Role          `json:"sender" yaml:"sender"`
	Receiver   Role          `json:"receiver" yaml:"receiver"`
	Tokens     []Token       `json:"tokens" yaml:"tokens"`
	Transport  bool          `json:"transport,omitempty" yaml:"transport,omitempty"`
	Span       source.Span   `json:"-" yaml:"-"`
	TokenSpans []source.Span `json:"-" yaml:"-"`
}

// Has reports whether the message carries token t.
func (m *Message) Has(t Token) bool {
	for _, x := range m.Tokens {
		if x == t {
			return true
		}
	}
	return false
}

// TokenSpan returns the span of the i-th token, or the message span.
func (m *Message) TokenSpan(i int) source.Span {
	if i >= 0 && i < len(m.TokenSpans) {
		return m.TokenSpans[i]
	}
	return m.Span
}

// Label joins the tokens as written in a diagram.
func (m *Message) Label() string {
	parts := make([]string, len(m.Tokens))
	for i, t := range m.Tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// Spec is the validated structure of one handshake pattern.
type Spec struct {
	Name        string       `json:"name" yaml:"name"`
	Base        string       `json:"base" yaml:"base"`
	Modifiers   []Modifier   `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	PreMessages []PreMessage `json:"preMessages,omitempty" yaml:"preMessages,omitempty"`
	Messages    []Message    `json:"messages" yaml:"messages"`
	NameSpan    source.Span  `json:"-" yaml:"-"`
}

// UsesPSK reports whether the pattern name declares a psk modifier.
func (s *Spec) UsesPSK() bool {
	for _, m := range s.Modifiers {
		if m.Kind == ModPSK {
			return true
		}
	}
	return false
}

// OneWay reports whether the pattern is one of N, K, X and their variants.
func (s *Spec) OneWay() bool {
	return IsOneWayBase(s.Base)
}

// HandshakeLen is the number of non-transport messages.
func (s *Spec) HandshakeLen() int {
	n := 0
	for i := range s.Messages {
		if !s.Messages[i].Transport {
			n++
		}
	}
	return n
}

// PreMessage returns the pre-message of role, if any.
func (s *Spec) PreMessage(role Role) (*PreMessage, bool) {
	for i := range s.PreMessages {
		if s.PreMessages[i].Role == role {
			return &s.PreMessages[i], true
		}
	}
	return nil, false
}

// PreKnows reports whether role's pre-message carries token t.
func (s *Spec) PreKnows(role Role, t Token) bool {
	pm, ok := s.PreMessage(role)
	if !ok {
		return false
	}
	for _, x := range pm.Tokens {
		if x == t {
			return true
		}
	}
	return false
}

// Sends reports whether role ever transmits token t, in a pre-message or a message.
func (s *Spec) Sends(role Role, t Token) bool {
	if s.PreKnows(role, t) {
		return true
	}
	for i := range s.Messages {
		if s.Messages[i].Sender == role && s.Messages[i].Has(t) {
			return true
		}
	}
	return false
}

// Identifier is the package/crate identifier derived from the name.
func (s *Spec) Identifier() (string, bool) {
	return Identifier(s.Name)
}

// String renders the pattern in canonical arrow notation.
func (s *Spec) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteString(":\n")
	for _, role := range []Role{Initiator, Responder} {
		pm, ok := s.PreMessage(role)
		if !ok {
			continue
		}
		writeLine(&b, role.Arrow(), pm.Tokens)
	}
	if len(s.PreMessages) > 0 {
		b.WriteString("  ...\n")
	}
	for i := range s.Messages {
		writeLine(&b, s.Messages[i].Sender.Arrow(), s.Messages[i].Tokens)
	}
	return b.String()
}

func writeLine(b *strings.Builder, arrow string, toks []Token) {
	b.WriteString("  ")
	b.WriteString(arrow)
	for i, t := range toks {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteByte('\n')
}
