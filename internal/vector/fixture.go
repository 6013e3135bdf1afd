// Package vector computes known-answer test vectors for a handshake pattern
// and cross-checks them against an independent Noise implementation.
package vector

import (
	"encoding/hex"
	"fmt"
)

// Fixture is the fixed key material every generated test uses. All keys are
// private keys; public halves are derived.
type Fixture struct {
	Prologue      []byte
	InitStatic    [32]byte
	RespStatic    [32]byte
	InitEphemeral [32]byte
	RespEphemeral [32]byte
	PSK           [32]byte
	Payloads      [][]byte
}

const (
	fixturePrologue      = "4a6f686e2047616c74"
	fixtureInitStatic    = "e61ef9919cde45dd5f82166404bd08e38bceb5dfdfded0a34c8df7ed542214d1"
	fixtureRespStatic    = "4a3acbfdb163dec651dfa3194dece676d437029c62a408b4c5ea9114246e4893"
	fixtureInitEphemeral = "893e28b9dc6ca8d611ab664754b8ceb7bac5117349a4439a6b0569da977c464a"
	fixtureRespEphemeral = "bbdb4cdbd309f1a1f2e1456967fe288cadd6f712d65dc7b7793d5e63da6b375b"
	fixturePSK           = "54686973206973206d7920417573747269616e20706572737065637469766521"
)

var fixturePayloads = []string{
	"4c756477696720766f6e204d69736573",
	"4d757272617920526f746862617264",
	"462e20412e20486179656b",
	"4361726c204d656e676572",
	"4a65616e2d426170746973746520536179",
	"457567656e2042f6686d20766f6e2042617765726b",
}

// MinMessages is the least number of messages a vector covers; patterns
// longer than that get two transport messages after the handshake.
const MinMessages = 6

// DefaultFixture returns the standard fixture.
func DefaultFixture() Fixture {
	fx := Fixture{
		Prologue:      mustHex(fixturePrologue),
		InitStatic:    mustKey(fixtureInitStatic),
		RespStatic:    mustKey(fixtureRespStatic),
		InitEphemeral: mustKey(fixtureInitEphemeral),
		RespEphemeral: mustKey(fixtureRespEphemeral),
		PSK:           mustKey(fixturePSK),
	}
	for _, p := range fixturePayloads {
		fx.Payloads = append(fx.Payloads, mustHex(p))
	}
	return fx
}

// Payload returns the payload of message i, cycling through the fixture.
func (fx *Fixture) Payload(i int) []byte {
	return fx.Payloads[i%len(fx.Payloads)]
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("vector: bad fixture hex %q: %v", s, err))
	}
	return b
}

func mustKey(s string) [32]byte {
	var k [32]byte
	b := mustHex(s)
	if len(b) != len(k) {
		panic(fmt.Sprintf("vector: fixture key %q has %d bytes", s, len(b)))
	}
	copy(k[:], b)
	return k
}

// MessageCount is the number of wire messages a vector covers.
func MessageCount(handshake int) int {
	return max(MinMessages, handshake+2)
}
