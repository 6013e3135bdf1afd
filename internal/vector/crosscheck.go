package vector

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/flynn/noise"

	"noisec/internal/pattern"
	"noisec/internal/sema"
)

// ErrUnsupported is returned by CrossCheck for patterns the reference
// implementation cannot express: several psk modifiers, fallback, or
// pre-message ephemeral keys.
var ErrUnsupported = errors.New("vector: pattern not supported by reference implementation")

var suite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashBLAKE2s)

var referenceTokens = map[pattern.Token]noise.MessagePattern{
	pattern.E:   noise.MessagePatternE,
	pattern.S:   noise.MessagePatternS,
	pattern.EE:  noise.MessagePatternDHEE,
	pattern.ES:  noise.MessagePatternDHES,
	pattern.SE:  noise.MessagePatternDHSE,
	pattern.SS:  noise.MessagePatternDHSS,
}

// referencePattern converts ir for github.com/flynn/noise. The psk modifier
// travels separately because the library appends it to the name itself.
func referencePattern(ir *sema.IR) (noise.HandshakePattern, int, error) {
	spec := ir.Pattern
	hp := noise.HandshakePattern{Name: spec.Base}
	placement := -1
	for _, m := range spec.Modifiers {
		if m.Kind != pattern.ModPSK || placement >= 0 {
			return hp, 0, ErrUnsupported
		}
		placement = m.Position
	}
	if ir.PreEphemeral(pattern.Initiator) || ir.PreEphemeral(pattern.Responder) {
		return hp, 0, ErrUnsupported
	}
	for _, pk := range ir.PreKeys {
		if pk.Role == pattern.Initiator {
			hp.InitiatorPreMessages = append(hp.InitiatorPreMessages, referenceTokens[pk.Token])
		} else {
			hp.ResponderPreMessages = append(hp.ResponderPreMessages, referenceTokens[pk.Token])
		}
	}
	for _, m := range ir.Handshake() {
		toks := make([]noise.MessagePattern, 0, len(m.Steps))
		for _, st := range m.Steps {
			// The library inserts psk from PresharedKeyPlacement.
			if st.Token == pattern.PSK {
				continue
			}
			toks = append(toks, referenceTokens[st.Token])
		}
		hp.Messages = append(hp.Messages, toks)
	}
	return hp, placement, nil
}

func referenceState(ir *sema.IR, hp noise.HandshakePattern, placement int, role pattern.Role, fx *Fixture) (*noise.HandshakeState, error) {
	own, peer, eph := fx.InitStatic, fx.RespStatic, fx.InitEphemeral
	if role == pattern.Responder {
		own, peer, eph = fx.RespStatic, fx.InitStatic, fx.RespEphemeral
	}
	kp, err := newKeypair(own)
	if err != nil {
		return nil, err
	}
	cfg := noise.Config{
		CipherSuite:   suite,
		Random:        bytes.NewReader(eph[:]),
		Pattern:       hp,
		Initiator:     role == pattern.Initiator,
		Prologue:      fx.Prologue,
		StaticKeypair: noise.DHKey{Private: kp.priv[:], Public: kp.pub[:]},
	}
	if ir.PreStatic(role.Peer()) {
		pub, err := PublicKey(peer)
		if err != nil {
			return nil, err
		}
		cfg.PeerStatic = pub[:]
	}
	if placement >= 0 {
		cfg.PresharedKey = fx.PSK[:]
		cfg.PresharedKeyPlacement = placement
	}
	return noise.NewHandshakeState(cfg)
}

// CrossCheck replays v with github.com/flynn/noise and compares every
// message and the handshake hash.
func CrossCheck(ir *sema.IR, v *Vector) error {
	hp, placement, err := referencePattern(ir)
	if err != nil {
		return err
	}
	fx := v.Fixture
	var hs [2]*noise.HandshakeState
	for _, role := range []pattern.Role{pattern.Initiator, pattern.Responder} {
		if hs[role], err = referenceState(ir, hp, placement, role, &fx); err != nil {
			return fmt.Errorf("reference %s: %w", role, err)
		}
	}

	// split[r] holds role r's cipher states once its handshake is over;
	// the initiator sends with the first, the responder with the second.
	var split [2][2]*noise.CipherState
	handshake := len(ir.Handshake())
	for i, want := range v.Messages {
		s, r := want.Sender, want.Sender.Peer()
		var got []byte
		if i < handshake {
			var c1, c2 *noise.CipherState
			got, c1, c2, err = hs[s].WriteMessage(nil, want.Payload)
			if err != nil {
				return fmt.Errorf("message %s: reference write: %w", want.Letter, err)
			}
			if c1 != nil {
				split[s] = [2]*noise.CipherState{c1, c2}
			}
			if _, c1, c2, err = hs[r].ReadMessage(nil, got); err != nil {
				return fmt.Errorf("message %s: reference read: %w", want.Letter, err)
			}
			if c1 != nil {
				split[r] = [2]*noise.CipherState{c1, c2}
			}
		} else {
			cs := split[s][s]
			if cs == nil {
				return fmt.Errorf("message %s: reference handshake not complete", want.Letter)
			}
			if got, err = cs.Encrypt(nil, nil, want.Payload); err != nil {
				return fmt.Errorf("message %s: reference encrypt: %w", want.Letter, err)
			}
		}
		if !bytes.Equal(got, want.Wire) {
			return fmt.Errorf("message %s: ciphertext differs from reference\n ours %x\n  ref %x", want.Letter, want.Wire, got)
		}
	}
	if h := hs[pattern.Initiator].ChannelBinding(); !bytes.Equal(h, v.HandshakeHash[:]) {
		return fmt.Errorf("handshake hash differs from reference: ours %x ref %x", v.HandshakeHash, h)
	}
	return nil
}
