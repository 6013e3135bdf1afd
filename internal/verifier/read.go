package verifier

import (
	"regexp"
	"strconv"
	"strings"

	"noisec/internal/backend/proverif"
)

var (
	resultRe   = regexp.MustCompile(`^RESULT (.+) (is true|is false|cannot be proved)\.\s*$`)
	summaryRe  = regexp.MustCompile(`^Query (.+) (is true|is false|cannot be proved)\.\s*$`)
	queryRe    = regexp.MustCompile(`^-- Query `)
	messageRe  = regexp.MustCompile(`\b(?:msg|stagepack)_([a-h]|m[0-9]+)\(`)
	attackerRe = regexp.MustCompile(`(?m)^\s*(?:set\s+)?attacker\s*=\s*(active|passive)\b`)
	bannerRe   = regexp.MustCompile(`(?m)^ProVerif [^\n]*`)
)

const summaryHeader = "Verification summary:"

// Options for Read.
type Options struct {
	// Attacker is used when the output does not state the attacker model.
	Attacker proverif.Attacker
	// Name identifies the input in errors.
	Name string
}

type entry struct {
	query   string
	outcome Outcome
	raw     string
}

// Read extracts query results from verifier output. Banner lines, traces and
// any other text around the results are ignored. Output without a single
// recognisable result is a ParseError.
func Read(text string, opts Options) (*Results, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	blocks, summary := scan(text)

	// The summary repeats every result; it is authoritative when present.
	// Raw blocks stay attached when both lists line up.
	entries := blocks
	if len(summary) > 0 {
		if len(summary) == len(blocks) {
			for i := range summary {
				summary[i].raw = blocks[i].raw
			}
		}
		entries = summary
	}
	if len(entries) == 0 {
		return nil, newParseError(opts.Name, text, "no query results found in verifier output")
	}

	attacker := opts.Attacker
	if m := attackerRe.FindStringSubmatch(text); m != nil {
		attacker = proverif.Attacker(m[1])
	}
	if attacker == "" {
		attacker = proverif.Active
	}

	rs := &Results{Raw: text}
	rs.Summary.Attacker = attacker
	if b := bannerRe.FindString(text); b != "" {
		rs.Summary.Banner = strings.TrimSpace(b)
	}

	type group struct {
		msg  int
		kind Kind
	}
	levels := make(map[group]int)
	for i, e := range entries {
		r := Result{
			ID:       i,
			Query:    e.query,
			Message:  messageOf(e.query),
			Kind:     kindOf(e.query),
			Attacker: attacker,
			Outcome:  e.outcome,
			Raw:      e.raw,
		}
		if strings.Contains(e.query, "==>") {
			g := group{r.Message, r.Kind}
			levels[g]++
			r.Level = levels[g]
		}
		switch r.Outcome {
		case Secure:
			rs.Summary.Secure++
		case Violated:
			rs.Summary.Violated++
		default:
			rs.Summary.Unknown++
		}
		rs.Results = append(rs.Results, r)
	}
	return rs, nil
}

// scan splits text into result blocks and summary entries. A block runs from
// its "-- Query" line to the RESULT line that closes it.
func scan(text string) (blocks, summary []entry) {
	var (
		start     = -1
		offset    int
		inSummary bool
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		lineStart := offset
		offset += len(line)
		trimmed := strings.TrimSpace(line)

		if trimmed == summaryHeader {
			inSummary = true
			continue
		}
		if inSummary {
			if m := summaryRe.FindStringSubmatch(trimmed); m != nil {
				summary = append(summary, entry{
					query:   m[1],
					outcome: outcomeOf(m[2]),
					raw:     trimmed,
				})
			}
			continue
		}

		if queryRe.MatchString(trimmed) && start < 0 {
			start = lineStart
		}
		m := resultRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		if start < 0 {
			start = lineStart
		}
		blocks = append(blocks, entry{
			query:   m[1],
			outcome: outcomeOf(m[2]),
			raw:     strings.TrimRight(text[start:offset], "\n"),
		})
		start = -1
	}
	return blocks, summary
}

func outcomeOf(s string) Outcome {
	switch s {
	case "is true":
		return Secure
	case "is false":
		return Violated
	}
	return Unknown
}

func kindOf(query string) Kind {
	if strings.Contains(query, "attacker(") || strings.Contains(query, "attacker_p1(") {
		return Confidentiality
	}
	return Authentication
}

func messageOf(query string) int {
	m := messageRe.FindStringSubmatch(query)
	if m == nil {
		return -1
	}
	l := m[1]
	if len(l) == 1 {
		return int(l[0] - 'a')
	}
	n, err := strconv.Atoi(l[1:])
	if err != nil || n < 1 {
		return -1
	}
	return n - 1
}
