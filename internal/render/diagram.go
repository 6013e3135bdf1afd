// Package render turns verifier results for a pattern into diagrams and
// HTML pages: an overview of the whole handshake and one detail page per
// message.
package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"noisec/internal/backend/proverif"
	"noisec/internal/diag"
	"noisec/internal/pattern"
	"noisec/internal/verifier"
)

// Geometry of the diagram, in SVG user units.
const (
	LeftLane    = 30
	RightLane   = 470
	TopMargin   = 30
	PreRow      = 40
	ArrowGap    = 30 // first arrow sits this far below the last row
	ArrowRow    = 70
	WrapRow     = 14
	BottomGap   = 30
	LabelColumn = 36
)

// Arrow is one message of the diagram.
type Arrow struct {
	Index     int
	Letter    string
	Sender    pattern.Role
	Receiver  pattern.Role
	Label     string
	Lines     []string
	Y         int
	Transport bool
	Grade     verifier.Grade
	Status    verifier.Outcome
}

// FromX and ToX are the lane coordinates the arrow runs between.
func (a *Arrow) FromX() int { return laneX(a.Sender) }
func (a *Arrow) ToX() int   { return laneX(a.Receiver) }

func laneX(r pattern.Role) int {
	if r == pattern.Initiator {
		return LeftLane
	}
	return RightLane
}

// PreKey is a pre-message row drawn above the arrows.
type PreKey struct {
	Role  pattern.Role
	Label string
	Y     int
}

// Query is the analysis text of one query.
type Query struct {
	Label    string
	Attacker proverif.Attacker
	Outcome  verifier.Outcome
	Raw      string
}

// Analysis is the prose for one message.
type Analysis struct {
	Index   int
	Letter  string
	Title   string
	Auth    string
	Conf    string
	Notes   []string
	Queries []Query
}

// DiagramModel is what both pages are built from. It holds no maps, so
// equal inputs give equal models.
type DiagramModel struct {
	Name     string
	Title    string
	Pattern  string
	Pre      []PreKey
	Arrows   []Arrow
	Height   int
	Analysis []Analysis
	// Letters names every message of the pattern, for page links.
	Letters []string
	// Excerpt is the model source of the message on detail pages.
	Excerpt string
	Active  verifier.Summary
	Passive verifier.Summary
}

// titled capitalises a role name for prose. Casers carry state, so each
// call gets its own.
func titled(s string) string {
	return cases.Title(language.English).String(s)
}

// RenderOverview lays out every message of spec annotated with the grades
// derived from both verifier runs.
func RenderOverview(spec *pattern.Spec, active, passive *verifier.Results) (*DiagramModel, error) {
	if err := checkResults(spec, active, passive); err != nil {
		return nil, err
	}
	d := &DiagramModel{
		Name:    spec.Name,
		Title:   spec.Name,
		Pattern: spec.String(),
		Letters: letters(spec),
		Active:  active.Summary,
		Passive: passive.Summary,
	}
	y := TopMargin
	for _, role := range []pattern.Role{pattern.Initiator, pattern.Responder} {
		pm, ok := spec.PreMessage(role)
		if !ok {
			continue
		}
		parts := make([]string, len(pm.Tokens))
		for i, t := range pm.Tokens {
			parts[i] = t.String()
		}
		d.Pre = append(d.Pre, PreKey{Role: role, Label: strings.Join(parts, ", "), Y: y + PreRow/2})
		y += PreRow
	}
	for i := range spec.Messages {
		a := arrow(spec, i, active, passive)
		a.Y = y + ArrowGap
		y += ArrowRow + WrapRow*(len(a.Lines)-1)
		d.Arrows = append(d.Arrows, a)
		d.Analysis = append(d.Analysis, analysis(spec, i, active, passive, false))
	}
	d.Height = y + BottomGap
	return d, nil
}

// RenderDetailed is RenderOverview scoped to message i, with the raw text of
// every query on that message and the message's functions from activeModel.
func RenderDetailed(activeModel string, spec *pattern.Spec, i int, active, passive *verifier.Results) (*DiagramModel, error) {
	if err := checkResults(spec, active, passive); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(spec.Messages) {
		return nil, verifier.Errorf(diag.VerUnknownMessage, spec.Name, "",
			"pattern %s has no message %d", spec.Name, i)
	}
	excerpt, err := Excerpt(activeModel, i)
	if err != nil {
		return nil, err
	}
	a := arrow(spec, i, active, passive)
	a.Y = TopMargin + ArrowGap
	return &DiagramModel{
		Name:     spec.Name,
		Title:    fmt.Sprintf("Message %s", a.Letter),
		Pattern:  spec.String(),
		Arrows:   []Arrow{a},
		Height:   TopMargin + ArrowRow + WrapRow*(len(a.Lines)-1) + BottomGap,
		Analysis: []Analysis{analysis(spec, i, active, passive, true)},
		Letters:  letters(spec),
		Excerpt:  excerpt,
		Active:   active.Summary,
		Passive:  passive.Summary,
	}, nil
}

func letters(spec *pattern.Spec) []string {
	out := make([]string, len(spec.Messages))
	for i := range out {
		out[i] = pattern.Letter(i)
	}
	return out
}

func checkResults(spec *pattern.Spec, active, passive *verifier.Results) error {
	for _, c := range []struct {
		rs   *verifier.Results
		want proverif.Attacker
	}{{active, proverif.Active}, {passive, proverif.Passive}} {
		if c.rs == nil || len(c.rs.Results) == 0 {
			return verifier.Errorf(diag.VerNoQueries, spec.Name, "", "no %s results to render", c.want)
		}
		if c.rs.Summary.Attacker != c.want {
			return verifier.Errorf(diag.VerModelMismatch, spec.Name, c.rs.Raw,
				"%s results come from a %s attacker model", c.want, c.rs.Summary.Attacker)
		}
		if n := c.rs.Messages(); n > len(spec.Messages) {
			return verifier.Errorf(diag.VerUnknownMessage, spec.Name, c.rs.Raw,
				"%s results refer to message %s, pattern %s has %d messages",
				c.want, pattern.Letter(n-1), spec.Name, len(spec.Messages))
		}
	}
	return nil
}

func arrow(spec *pattern.Spec, i int, active, passive *verifier.Results) Arrow {
	m := &spec.Messages[i]
	label := m.Label()
	return Arrow{
		Index:     i,
		Letter:    pattern.Letter(i),
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Label:     label,
		Lines:     wrap(label, LabelColumn),
		Transport: m.Transport,
		Grade:     verifier.GradeMessage(active, passive, i),
		Status:    verifier.Status(active, passive, i),
	}
}

// wrap breaks a token list after commas so no line exceeds width columns,
// not counting the trailing comma. A single token is never split.
func wrap(label string, width int) []string {
	if label == "" {
		return []string{""}
	}
	var lines []string
	cur := ""
	for _, part := range strings.Split(label, ", ") {
		if cur == "" {
			cur = part
			continue
		}
		if runewidth.StringWidth(cur+", "+part) > width {
			lines = append(lines, cur+",")
			cur = part
			continue
		}
		cur += ", " + part
	}
	return append(lines, cur)
}

func analysis(spec *pattern.Spec, i int, active, passive *verifier.Results, raw bool) Analysis {
	m := &spec.Messages[i]
	g := verifier.GradeMessage(active, passive, i)
	auth, conf := g.Describe()
	an := Analysis{
		Index:  i,
		Letter: pattern.Letter(i),
		Title: fmt.Sprintf("Message %s: %s to %s", pattern.Letter(i),
			titled(m.Sender.String()), titled(m.Receiver.String())),
		Auth: auth,
		Conf: conf,
	}
	if m.Transport {
		an.Notes = append(an.Notes, "Transport message, encrypted with the keys split at the end of the handshake.")
	}
	for _, rs := range []*verifier.Results{active, passive} {
		for _, r := range rs.ForMessage(i) {
			if r.Sanity() && r.Outcome == verifier.Secure {
				an.Notes = append(an.Notes, fmt.Sprintf(
					"Sanity check %s did not fail under the %s attacker: the message is never delivered in the model, so its other results are vacuous.",
					r.Label(), rs.Summary.Attacker))
			}
			if !raw {
				continue
			}
			an.Queries = append(an.Queries, Query{
				Label:    r.Label(),
				Attacker: rs.Summary.Attacker,
				Outcome:  r.Outcome,
				Raw:      r.Raw,
			})
		}
	}
	return an
}

// Excerpt returns the writeMessage and readMessage functions of message i
// from model source.
func Excerpt(model string, i int) (string, error) {
	l := strings.ToLower(pattern.Letter(i))
	var parts []string
	for _, fn := range []string{"writeMessage_" + l, "readMessage_" + l} {
		body, ok := letfun(model, fn)
		if !ok {
			return "", verifier.Errorf(diag.VerModelMismatch, "model", model,
				"model does not define %s", fn)
		}
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n\n"), nil
}

func letfun(model, name string) (string, bool) {
	start := strings.Index(model, "letfun "+name+"(")
	if start < 0 {
		return "", false
	}
	rest := model[start:]
	var b strings.Builder
	for _, line := range strings.SplitAfter(rest, "\n") {
		b.WriteString(line)
		if strings.HasSuffix(strings.TrimSpace(line), ".") {
			break
		}
	}
	return strings.TrimRight(b.String(), "\n"), true
}
