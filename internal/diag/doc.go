// Package diag defines the diagnostic model shared by every compiler phase.
//
// # Purpose
//
//   - Provide deterministic data structures for findings produced by the
//     lexer, the pattern parser, the key-state analyzer and the generators.
//   - Offer Reporter and Bag so producers emit diagnostics without coupling to
//     storage or formatting.
//
// Package diag performs no formatting beyond the golden/short single-line
// form used by tests. Rendering lives in internal/diagfmt.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – numeric identifier with a stable ID (LEX1001, SYN2003, SEM3004…).
//   - Message – short human text.
//   - Primary – the span of the offending pattern text.
//   - Notes – optional secondary spans.
//   - Fixes – optional textual replacements (e.g. a corrected modifier).
//
// Phases never stop at the first diagnostic; the typed errors returned by the
// parser and the analyzer wrap the first error-severity entry.
package diag
