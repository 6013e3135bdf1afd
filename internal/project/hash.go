package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a SHA-256 hash used as a cache key.
type Digest [32]byte

// Hash hashes every part in order, each prefixed by its length so that
// ("ab", "c") and ("a", "bc") differ.
func Hash(parts ...[]byte) Digest {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		_, _ = h.Write(n[:])
		_, _ = h.Write(p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Combine builds H(content || dep1 || dep2 ...). The order of deps matters.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// IsZero reports whether d was never set.
func (d Digest) IsZero() bool { return d == Digest{} }

func (d Digest) String() string { return hex.EncodeToString(d[:]) }
