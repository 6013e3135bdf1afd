package pattern

import (
	"regexp"
	"strconv"
	"strings"
)

// ModifierKind distinguishes pattern name modifiers.
type ModifierKind uint8

const (
	ModPSK ModifierKind = iota
	ModFallback
)

// Modifier is a parsed name modifier such as psk0 or fallback.
type Modifier struct {
	Kind ModifierKind `json:"-" yaml:"-"`
	// Position is N of pskN.
	Position int    `json:"position,omitempty" yaml:"position,omitempty"`
	Text     string `json:"text" yaml:"text"`
}

var (
	baseRe     = regexp.MustCompile(`^(?:(?:N|[KXI]1?)[NKX]1?|[NKX])`)
	modifierRe = regexp.MustCompile(`^(?:psk(\d+)|fallback)$`)
)

// ParseName splits a pattern name into base and modifiers. The first
// modifier follows the base directly, later ones are joined by '+'.
func ParseName(name string) (base string, mods []Modifier, ok bool) {
	base = baseRe.FindString(name)
	if base == "" {
		return "", nil, false
	}
	rest := name[len(base):]
	if rest == "" {
		return base, nil, true
	}
	for _, part := range strings.Split(rest, "+") {
		m := modifierRe.FindStringSubmatch(part)
		if m == nil {
			return "", nil, false
		}
		if m[1] == "" {
			mods = append(mods, Modifier{Kind: ModFallback, Text: part})
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "", nil, false
		}
		mods = append(mods, Modifier{Kind: ModPSK, Position: n, Text: part})
	}
	return base, mods, true
}

// IsOneWayBase reports whether base names a one-way pattern (N, K, X).
func IsOneWayBase(base string) bool {
	return len(base) == 1
}

// Identifier derives a lower-case identifier from a pattern name, mapping '+'
// to '_'. ok is false when the result is not a valid Go/Rust identifier.
func Identifier(name string) (string, bool) {
	id := strings.ReplaceAll(strings.ToLower(name), "+", "_")
	if id == "" || id[0] < 'a' || id[0] > 'z' {
		return id, false
	}
	for i := 1; i < len(id); i++ {
		c := id[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_') {
			return id, false
		}
	}
	return id, true
}
