// Package verifier reads ProVerif output for the generated models.
//
// The reader does not know the pattern. It classifies each query by the
// symbols the model generator uses: msg_x and stagepack_x name the message,
// attacker(...) marks a confidentiality query and event(...) an
// authentication query. A query without an implication is a sanity check.
package verifier

import (
	"fmt"

	"noisec/internal/backend/proverif"
	"noisec/internal/pattern"
)

// Outcome of one query.
type Outcome uint8

const (
	Unknown Outcome = iota
	Secure
	Violated
)

func (o Outcome) String() string {
	switch o {
	case Secure:
		return "secure"
	case Violated:
		return "violated"
	}
	return "unknown"
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Kind of the property a query checks.
type Kind uint8

const (
	Authentication Kind = iota
	Confidentiality
)

func (k Kind) String() string {
	if k == Confidentiality {
		return "confidentiality"
	}
	return "authentication"
}

// Short is the prefix used in query labels.
func (k Kind) Short() string {
	if k == Confidentiality {
		return "conf"
	}
	return "auth"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Result is one query as reported by the verifier.
type Result struct {
	// ID is the 0-based position of the query in the output.
	ID    int    `json:"id"`
	Query string `json:"query"`
	// Message is the 0-based message index, -1 when the query names none.
	Message  int               `json:"message"`
	Kind     Kind              `json:"kind"`
	Level    int               `json:"level"` // 0 for sanity queries
	Attacker proverif.Attacker `json:"attacker"`
	Outcome  Outcome           `json:"outcome"`
	Raw      string            `json:"raw"`
}

// Sanity reports whether the query only checks reachability.
func (r *Result) Sanity() bool { return r.Level == 0 }

func (r *Result) Label() string {
	level := r.Kind.Short() + " sanity"
	if !r.Sanity() {
		level = fmt.Sprintf("%s%d", r.Kind.Short(), r.Level)
	}
	msg := "-"
	if r.Message >= 0 {
		msg = pattern.Letter(r.Message)
	}
	return fmt.Sprintf("%s %s", msg, level)
}

// Summary counts outcomes of one verifier run.
type Summary struct {
	Attacker proverif.Attacker `json:"attacker"`
	Secure   int               `json:"secure"`
	Violated int               `json:"violated"`
	Unknown  int               `json:"unknown"`
	// Banner is the verifier's version line when the output has one.
	Banner string `json:"banner,omitempty"`
}

func (s Summary) Total() int { return s.Secure + s.Violated + s.Unknown }

func (s Summary) String() string {
	return fmt.Sprintf("%s: %d queries, %d secure, %d violated, %d unknown",
		s.Attacker, s.Total(), s.Secure, s.Violated, s.Unknown)
}

// Results is everything read from one verifier output.
type Results struct {
	Summary Summary  `json:"summary"`
	Results []Result `json:"results"`
	Raw     string   `json:"-"`
}

// ForMessage returns the results associated with message i in output order.
func (rs *Results) ForMessage(i int) []Result {
	var out []Result
	for _, r := range rs.Results {
		if r.Message == i {
			out = append(out, r)
		}
	}
	return out
}

// Holds reports whether the query of the given kind and level on message i
// was proved. Missing queries do not hold.
func (rs *Results) Holds(i int, kind Kind, level int) bool {
	for _, r := range rs.Results {
		if r.Message == i && r.Kind == kind && r.Level == level {
			return r.Outcome == Secure
		}
	}
	return false
}

// Messages returns one past the highest message index any result names.
func (rs *Results) Messages() int {
	n := 0
	for _, r := range rs.Results {
		if r.Message+1 > n {
			n = r.Message + 1
		}
	}
	return n
}
