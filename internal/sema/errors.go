package sema

import (
	"errors"
	"fmt"

	"noisec/internal/diag"
	"noisec/internal/pattern"
)

// ErrCausality matches every *CausalityError via errors.Is.
var ErrCausality = errors.New("handshake causality violation")

// CausalityError reports a token used before its prerequisites exist, or a
// pattern that breaks a Noise validity rule.
type CausalityError struct {
	// Message is the 0-based index of the offending message, -1 for
	// pattern-level problems (unused modifier).
	Message int
	// Token is meaningful when TokenIndex >= 0.
	Token      pattern.Token
	TokenIndex int
	Diag       *diag.Diagnostic
}

func (e *CausalityError) Error() string {
	switch {
	case e.Message < 0:
		return e.Diag.Message
	case e.TokenIndex < 0:
		return fmt.Sprintf("message %s: %s", pattern.Letter(e.Message), e.Diag.Message)
	}
	return fmt.Sprintf("message %s, token %s: %s", pattern.Letter(e.Message), e.Token, e.Diag.Message)
}

func (e *CausalityError) Is(target error) bool {
	return target == ErrCausality
}

func (e *CausalityError) Unwrap() error {
	return e.Diag
}
