package backend

import (
	"errors"
	"fmt"

	"noisec/internal/diag"
)

// ErrPrecondition matches every *PreconditionError via errors.Is.
var ErrPrecondition = errors.New("generation precondition violated")

// PreconditionError is an internal invariant failure while generating. It
// cannot happen for an IR that passed analysis unless a generator is broken.
type PreconditionError struct {
	Backend Kind
	Diag    *diag.Diagnostic
}

func newPrecondition(kind Kind, code diag.Code, msg string) *PreconditionError {
	return &PreconditionError{Backend: kind, Diag: diag.NewError(code, noSpan(), msg)}
}

// Preconditionf builds a PreconditionError for callers outside the package.
func Preconditionf(kind Kind, code diag.Code, format string, args ...any) *PreconditionError {
	return newPrecondition(kind, code, fmt.Sprintf(format, args...))
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s backend: %s", e.Backend, e.Diag.Message)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

func (e *PreconditionError) Unwrap() error {
	return e.Diag
}
