package token

var keywords = map[string]Kind{
	"initiator": KwInitiator,
	"responder": KwResponder,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
