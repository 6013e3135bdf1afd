package pattern

import "fmt"

// Token is a handshake token.
type Token uint8

const (
	E Token = iota
	S
	EE
	ES
	SE
	SS
	PSK
)

var tokenNames = [...]string{
	E:   "e",
	S:   "s",
	EE:  "ee",
	ES:  "es",
	SE:  "se",
	SS:  "ss",
	PSK: "psk",
}

// AllTokens lists every variant in declaration order.
var AllTokens = []Token{E, S, EE, ES, SE, SS, PSK}

func (t Token) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("Token(%d)", uint8(t))
}

// LookupToken maps the textual form to a Token.
func LookupToken(s string) (Token, bool) {
	for i, name := range tokenNames {
		if name == s {
			return Token(i), true
		}
	}
	return 0, false
}

// IsDH reports whether t is a Diffie-Hellman token.
func (t Token) IsDH() bool {
	switch t {
	case EE, ES, SE, SS:
		return true
	}
	return false
}

// IsKey reports whether t transmits a public key.
func (t Token) IsKey() bool {
	return t == E || t == S
}

// DHKeys returns which key each side contributes to a DH token:
// the first letter names the initiator's key, the second the responder's.
// Both results are E or S.
func (t Token) DHKeys() (initiatorKey, responderKey Token) {
	switch t {
	case EE:
		return E, E
	case ES:
		return E, S
	case SE:
		return S, E
	case SS:
		return S, S
	}
	panic(fmt.Sprintf("pattern: DHKeys on non-DH token %s", t))
}

// KeyFor returns the key role contributes to DH token t.
func (t Token) KeyFor(role Role) Token {
	i, r := t.DHKeys()
	if role == Initiator {
		return i
	}
	return r
}

func (t Token) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Token) UnmarshalText(b []byte) error {
	tok, ok := LookupToken(string(b))
	if !ok {
		return fmt.Errorf("unknown token %q", b)
	}
	*t = tok
	return nil
}
