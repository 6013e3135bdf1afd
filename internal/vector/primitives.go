package vector

import (
	"encoding/binary"
	"errors"
	"hash"
	"io"
	"math"

	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

var (
	// ErrDecrypt reports a message whose tag did not verify.
	ErrDecrypt = errors.New("vector: decryption failed")
	// ErrShortMessage reports a message shorter than its tokens require.
	ErrShortMessage = errors.New("vector: message too short")
)

const (
	dhLen  = 32
	tagLen = chacha20poly1305.Overhead
)

type keypair struct {
	pub  [32]byte
	priv [32]byte
}

func newKeypair(priv [32]byte) (keypair, error) {
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return keypair{}, err
	}
	kp := keypair{priv: priv}
	copy(kp.pub[:], pub)
	return kp, nil
}

// PublicKey derives the public key of priv.
func PublicKey(priv [32]byte) ([32]byte, error) {
	kp, err := newKeypair(priv)
	return kp.pub, err
}

func dh(priv, pub [32]byte) ([32]byte, error) {
	var out [32]byte
	shared, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return out, err
	}
	copy(out[:], shared)
	return out, nil
}

func newHash() hash.Hash {
	h, _ := blake2s.New256(nil)
	return h
}

// hkdf3 is Noise's HKDF with three outputs: HKDF-Extract with ck as salt,
// then Expand with empty info.
func hkdf3(ck [32]byte, ikm []byte) (o1, o2, o3 [32]byte) {
	r := hkdf.New(newHash, ikm, ck[:], nil)
	var buf [3 * dhLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		panic("vector: hkdf: " + err.Error())
	}
	copy(o1[:], buf[:dhLen])
	copy(o2[:], buf[dhLen:2*dhLen])
	copy(o3[:], buf[2*dhLen:])
	return o1, o2, o3
}

type cipherState struct {
	k   [32]byte
	n   uint64
	has bool
}

func (cs *cipherState) init(k [32]byte) {
	cs.k, cs.n, cs.has = k, 0, true
}

func (cs *cipherState) nonce() []byte {
	var nonce [chacha20poly1305.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[4:], cs.n)
	return nonce[:]
}

func (cs *cipherState) encrypt(ad, plaintext []byte) ([]byte, error) {
	if !cs.has {
		return plaintext, nil
	}
	if cs.n == math.MaxUint64 {
		return nil, errors.New("vector: nonce exhausted")
	}
	aead, err := chacha20poly1305.New(cs.k[:])
	if err != nil {
		return nil, err
	}
	out := aead.Seal(nil, cs.nonce(), plaintext, ad)
	cs.n++
	return out, nil
}

func (cs *cipherState) decrypt(ad, ciphertext []byte) ([]byte, error) {
	if !cs.has {
		return ciphertext, nil
	}
	aead, err := chacha20poly1305.New(cs.k[:])
	if err != nil {
		return nil, err
	}
	out, err := aead.Open(nil, cs.nonce(), ciphertext, ad)
	if err != nil {
		return nil, ErrDecrypt
	}
	cs.n++
	return out, nil
}

type symmetricState struct {
	cs cipherState
	ck [32]byte
	h  [32]byte
}

func newSymmetricState(protocolName string) symmetricState {
	var ss symmetricState
	if len(protocolName) <= dhLen {
		copy(ss.h[:], protocolName)
	} else {
		ss.h = blake2s.Sum256([]byte(protocolName))
	}
	ss.ck = ss.h
	return ss
}

func (ss *symmetricState) mixHash(data []byte) {
	h := newHash()
	h.Write(ss.h[:])
	h.Write(data)
	h.Sum(ss.h[:0])
}

func (ss *symmetricState) mixKey(ikm []byte) {
	ck, k, _ := hkdf3(ss.ck, ikm)
	ss.ck = ck
	ss.cs.init(k)
}

func (ss *symmetricState) mixKeyAndHash(ikm []byte) {
	ck, th, k := hkdf3(ss.ck, ikm)
	ss.ck = ck
	ss.mixHash(th[:])
	ss.cs.init(k)
}

func (ss *symmetricState) encryptAndHash(plaintext []byte) ([]byte, error) {
	ct, err := ss.cs.encrypt(ss.h[:], plaintext)
	if err != nil {
		return nil, err
	}
	ss.mixHash(ct)
	return ct, nil
}

func (ss *symmetricState) decryptAndHash(ciphertext []byte) ([]byte, error) {
	pt, err := ss.cs.decrypt(ss.h[:], ciphertext)
	if err != nil {
		return nil, err
	}
	ss.mixHash(ciphertext)
	return pt, nil
}

func (ss *symmetricState) split() (c1, c2 cipherState) {
	k1, k2, _ := hkdf3(ss.ck, nil)
	c1.init(k1)
	c2.init(k2)
	return c1, c2
}
