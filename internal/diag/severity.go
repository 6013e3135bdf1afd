package diag

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics; a Bag treats SevError and above as failure.
type Severity uint8

const (
	SevInfo Severity = iota
	// SevWarning marks patterns that compile but have a weak property, for
	// example a static key encrypted before any DH.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Label is the lower-case form used in single-line output.
func (s Severity) Label() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// ParseSeverity accepts either String or Label spelling.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SevInfo, nil
	case "warning", "warn":
		return SevWarning, nil
	case "error":
		return SevError, nil
	}
	return SevInfo, fmt.Errorf("unknown severity %q", s)
}
