package parser

import (
	"errors"
	"fmt"

	"noisec/internal/diag"
	"noisec/internal/source"
)

// ErrSyntax matches every *SyntaxError via errors.Is.
var ErrSyntax = errors.New("pattern syntax error")

// SyntaxError is returned when the pattern text is malformed. It carries the
// first error diagnostic; the reporter has all of them.
type SyntaxError struct {
	Path string
	Line uint32
	Col  uint32
	// Text is the offending source text (may be empty at end of input).
	Text string
	Diag *diag.Diagnostic
}

func newSyntaxError(fs *source.FileSet, d *diag.Diagnostic) *SyntaxError {
	f := fs.Get(d.Primary.File)
	start, _ := fs.Resolve(d.Primary)
	return &SyntaxError{
		Path: f.Path,
		Line: start.Line,
		Col:  start.Col,
		Text: f.Text(d.Primary),
		Diag: d,
	}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Col, e.Diag.Message)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

func (e *SyntaxError) Unwrap() error {
	return e.Diag
}

// firstError remembers the first error-severity diagnostic while forwarding.
type firstError struct {
	next  diag.Reporter
	first *diag.Diagnostic
	count uint
}

func (r *firstError) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	if sev == diag.SevError {
		r.count++
		if r.first == nil {
			r.first = &diag.Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes, Fixes: fixes}
		}
	}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes, fixes)
	}
}
