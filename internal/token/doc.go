// Package token defines lexical token kinds and trivia of the pattern notation.
// Invariants:
//   - Token.Text is a slice of the original text (no copies).
//   - Token.Span matches Text exactly.
//   - Newlines are significant and appear in the token stream; runs of blank
//     lines collapse into one Newline token.
//   - Handshake tokens (e, s, ee, ...) are identifiers; the parser classifies them.
package token
