package verifier

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"noisec/internal/diag"
	"noisec/internal/source"
)

// ErrNoQueries matches every *ParseError via errors.Is.
var ErrNoQueries = errors.New("unusable verifier output")

// ParseError reports verifier output that cannot be used: nothing recognisable
// in it, or results that do not fit the pattern being rendered.
type ParseError struct {
	Name string
	Diag *diag.Diagnostic
}

func newParseError(name, text, msg string) *ParseError {
	return Errorf(diag.VerNoQueries, name, text, "%s", msg)
}

// Errorf builds a ParseError spanning text.
func Errorf(code diag.Code, name, text, format string, args ...any) *ParseError {
	var sp source.Span
	if n, err := safecast.Conv[uint32](len(text)); err == nil {
		sp.End = n
	}
	return &ParseError{Name: name, Diag: diag.NewError(code, sp, fmt.Sprintf(format, args...))}
}

func (e *ParseError) Error() string {
	if e.Name == "" {
		return e.Diag.Message
	}
	return e.Name + ": " + e.Diag.Message
}

func (e *ParseError) Is(target error) bool {
	return target == ErrNoQueries
}

func (e *ParseError) Unwrap() error {
	return e.Diag
}
