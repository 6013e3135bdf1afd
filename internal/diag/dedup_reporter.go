package diag

import "noisec/internal/source"

type dedupKey struct {
	code  Code
	sev   Severity
	file  source.FileID
	start uint32
	end   uint32
	msg   string
}

// DedupReporter suppresses diagnostics repeating code, severity, span and message.
// The analyzer uses it because a single bad token can fail several checks.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil {
		return
	}
	key := dedupKey{code: code, sev: sev, file: primary.File, start: primary.Start, end: primary.End, msg: msg}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes, fixes)
	}
}
