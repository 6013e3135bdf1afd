package vector

import (
	"bytes"
	"fmt"

	"noisec/internal/pattern"
	"noisec/internal/sema"
)

// Message is one wire message of a vector.
type Message struct {
	Index     int          `json:"index" yaml:"index"`
	Letter    string       `json:"letter" yaml:"letter"`
	Sender    pattern.Role `json:"sender" yaml:"sender"`
	Transport bool         `json:"transport,omitempty" yaml:"transport,omitempty"`
	Payload   []byte       `json:"payload" yaml:"payload"`
	Wire      []byte       `json:"ciphertext" yaml:"ciphertext"`
}

// Vector is the expected transcript of one run of a pattern.
type Vector struct {
	Protocol      string    `json:"protocol_name" yaml:"protocol_name"`
	UsesPSK       bool      `json:"-" yaml:"-"`
	Fixture       Fixture   `json:"-" yaml:"-"`
	Messages      []Message `json:"messages" yaml:"messages"`
	HandshakeHash [32]byte  `json:"-" yaml:"-"`
}

// party is one side of the handshake.
type party struct {
	role pattern.Role
	ss   symmetricState
	s    keypair
	e    keypair
	// presetE is installed by the first e token.
	presetE  keypair
	rs, re   [32]byte
	psk      [32]byte
	c1, c2   cipherState
	complete bool
}

func newParty(ir *sema.IR, role pattern.Role, fx *Fixture) (*party, error) {
	p := &party{role: role, psk: fx.PSK}
	own, peer := fx.InitStatic, fx.RespStatic
	ownE, peerE := fx.InitEphemeral, fx.RespEphemeral
	if role == pattern.Responder {
		own, peer = peer, own
		ownE, peerE = peerE, ownE
	}
	var err error
	if p.s, err = newKeypair(own); err != nil {
		return nil, err
	}
	if p.presetE, err = newKeypair(ownE); err != nil {
		return nil, err
	}
	if ir.PreStatic(role.Peer()) {
		if p.rs, err = PublicKey(peer); err != nil {
			return nil, err
		}
	}
	if ir.PreEphemeral(role) {
		p.e = p.presetE
	}
	if ir.PreEphemeral(role.Peer()) {
		if p.re, err = PublicKey(peerE); err != nil {
			return nil, err
		}
	}

	p.ss = newSymmetricState(ir.ProtocolName)
	p.ss.mixHash(fx.Prologue)
	for _, pk := range ir.PreKeys {
		pub := p.preKey(pk)
		p.ss.mixHash(pub[:])
		if pk.MixKey {
			p.ss.mixKey(pub[:])
		}
	}
	return p, nil
}

func (p *party) preKey(pk sema.PreKey) [32]byte {
	own := pk.Role == p.role
	switch {
	case pk.Token == pattern.E && own:
		return p.e.pub
	case pk.Token == pattern.E:
		return p.re
	case own:
		return p.s.pub
	}
	return p.rs
}

func (p *party) dh(t pattern.Token) error {
	mine := p.s.priv
	if t.KeyFor(p.role) == pattern.E {
		mine = p.e.priv
	}
	theirs := p.rs
	if t.KeyFor(p.role.Peer()) == pattern.E {
		theirs = p.re
	}
	shared, err := dh(mine, theirs)
	if err != nil {
		return err
	}
	p.ss.mixKey(shared[:])
	return nil
}

func (p *party) write(m *sema.Message, payload []byte) ([]byte, error) {
	if m.Transport {
		cs := &p.c1
		if p.role == pattern.Responder {
			cs = &p.c2
		}
		return cs.encrypt(nil, payload)
	}
	var out []byte
	for _, st := range m.Steps {
		switch {
		case st.Token == pattern.E:
			p.e = p.presetE
			out = append(out, p.e.pub[:]...)
			p.ss.mixHash(p.e.pub[:])
			if st.MixKey {
				p.ss.mixKey(p.e.pub[:])
			}
		case st.Token == pattern.S:
			ct, err := p.ss.encryptAndHash(p.s.pub[:])
			if err != nil {
				return nil, err
			}
			out = append(out, ct...)
		case st.Token.IsDH():
			if err := p.dh(st.Token); err != nil {
				return nil, err
			}
		case st.Token == pattern.PSK:
			p.ss.mixKeyAndHash(p.psk[:])
		}
	}
	ct, err := p.ss.encryptAndHash(payload)
	if err != nil {
		return nil, err
	}
	out = append(out, ct...)
	p.finish(m)
	return out, nil
}

func (p *party) read(m *sema.Message, msg []byte) ([]byte, error) {
	if m.Transport {
		cs := &p.c2
		if p.role == pattern.Responder {
			cs = &p.c1
		}
		return cs.decrypt(nil, msg)
	}
	for _, st := range m.Steps {
		switch {
		case st.Token == pattern.E:
			if len(msg) < dhLen {
				return nil, ErrShortMessage
			}
			copy(p.re[:], msg[:dhLen])
			msg = msg[dhLen:]
			p.ss.mixHash(p.re[:])
			if st.MixKey {
				p.ss.mixKey(p.re[:])
			}
		case st.Token == pattern.S:
			n := dhLen
			if p.ss.cs.has {
				n += tagLen
			}
			if len(msg) < n {
				return nil, ErrShortMessage
			}
			pt, err := p.ss.decryptAndHash(msg[:n])
			if err != nil {
				return nil, err
			}
			copy(p.rs[:], pt)
			msg = msg[n:]
		case st.Token.IsDH():
			if err := p.dh(st.Token); err != nil {
				return nil, err
			}
		case st.Token == pattern.PSK:
			p.ss.mixKeyAndHash(p.psk[:])
		}
	}
	pt, err := p.ss.decryptAndHash(msg)
	if err != nil {
		return nil, err
	}
	p.finish(m)
	return pt, nil
}

func (p *party) finish(m *sema.Message) {
	if m.Final {
		p.c1, p.c2 = p.ss.split()
		p.complete = true
	}
}

// transportMessage describes message i beyond the pattern's own lines.
func transportMessage(ir *sema.IR, i int) *sema.Message {
	s := ir.Sender(i)
	return &sema.Message{
		Index:     i,
		Letter:    pattern.Letter(i),
		Sender:    s,
		Receiver:  s.Peer(),
		Transport: true,
	}
}

// Compute runs both parties over the fixture and records every message.
// Each message is decrypted by the receiver and checked against its payload.
func Compute(ir *sema.IR, fx Fixture) (*Vector, error) {
	ini, err := newParty(ir, pattern.Initiator, &fx)
	if err != nil {
		return nil, err
	}
	rsp, err := newParty(ir, pattern.Responder, &fx)
	if err != nil {
		return nil, err
	}
	parties := [2]*party{pattern.Initiator: ini, pattern.Responder: rsp}

	v := &Vector{Protocol: ir.ProtocolName, UsesPSK: ir.UsesPSK, Fixture: fx}
	total := MessageCount(len(ir.Handshake()))
	for i := range total {
		var m *sema.Message
		if i < len(ir.Messages) {
			m = &ir.Messages[i]
		} else {
			m = transportMessage(ir, i)
		}
		payload := fx.Payload(i)
		wire, err := parties[m.Sender].write(m, payload)
		if err != nil {
			return nil, fmt.Errorf("message %s: write: %w", m.Letter, err)
		}
		got, err := parties[m.Receiver].read(m, wire)
		if err != nil {
			return nil, fmt.Errorf("message %s: read: %w", m.Letter, err)
		}
		if !bytes.Equal(got, payload) {
			return nil, fmt.Errorf("message %s: payload mismatch", m.Letter)
		}
		if m.Final {
			if ini.ss.h != rsp.ss.h {
				return nil, fmt.Errorf("message %s: handshake hashes differ", m.Letter)
			}
			v.HandshakeHash = ini.ss.h
		}
		v.Messages = append(v.Messages, Message{
			Index:     i,
			Letter:    m.Letter,
			Sender:    m.Sender,
			Transport: m.Transport,
			Payload:   payload,
			Wire:      wire,
		})
	}
	return v, nil
}
