package token

import "noisec/internal/source"

type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	TriviaLineComment
)

type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}
