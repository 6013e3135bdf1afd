package token_test

import (
	"testing"

	"noisec/internal/token"
)

func TestKindString(t *testing.T) {
	tests := map[token.Kind]string{
		token.Arrow:       "->",
		token.LArrow:      "<-",
		token.Ellipsis:    "...",
		token.KwInitiator: "initiator",
		token.Kind(200):   "Kind(?)",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestRoleAndArrowKinds(t *testing.T) {
	if !token.KwResponder.IsRole() || token.Ident.IsRole() {
		t.Fatalf("IsRole misclassifies")
	}
	if !token.LArrow.IsArrow() || token.Colon.IsArrow() {
		t.Fatalf("IsArrow misclassifies")
	}
}

func TestLookupKeyword(t *testing.T) {
	if k, ok := token.LookupKeyword("initiator"); !ok || k != token.KwInitiator {
		t.Fatalf("initiator lookup = %v, %v", k, ok)
	}
	if _, ok := token.LookupKeyword("Initiator"); ok {
		t.Fatalf("keywords are case-sensitive")
	}
	if _, ok := token.LookupKeyword("es"); ok {
		t.Fatalf("handshake tokens are identifiers")
	}
}
