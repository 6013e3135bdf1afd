package token

// Kind represents the category of a lexical token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of input.
	EOF
	// Newline terminates a pattern line.
	Newline

	// Ident covers pattern names, handshake tokens and modifiers.
	Ident
	// KwInitiator is the role word 'initiator'.
	KwInitiator
	// KwResponder is the role word 'responder'.
	KwResponder

	Arrow    // ->
	LArrow   // <-
	Colon    // :
	Comma    // ,
	Ellipsis // ...
)

var kindNames = [...]string{
	Invalid:     "Invalid",
	EOF:         "EOF",
	Newline:     "Newline",
	Ident:       "Ident",
	KwInitiator: "initiator",
	KwResponder: "responder",
	Arrow:       "->",
	LArrow:      "<-",
	Colon:       ":",
	Comma:       ",",
	Ellipsis:    "...",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsRole reports whether k names a protocol role.
func (k Kind) IsRole() bool {
	return k == KwInitiator || k == KwResponder
}

// IsArrow reports whether k is a direction arrow.
func (k Kind) IsArrow() bool {
	return k == Arrow || k == LArrow
}
