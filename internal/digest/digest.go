// Package digest supplies the named hash capabilities the OpenTimestamps
// operation vocabulary requires as stateless digest functions: SHA-256,
// RIPEMD-160, SHA-1, and KECCAK-256.
package digest

import (
	"crypto/sha1"
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// Func is a pure digest function: message bytes in, digest bytes out.
type Func func([]byte) []byte

// SHA256 computes the SHA-256 digest.
func SHA256(msg []byte) []byte {
	h := sha256.Sum256(msg)
	return h[:]
}

// SHA1 computes the SHA-1 digest.
func SHA1(msg []byte) []byte {
	h := sha1.Sum(msg)
	return h[:]
}

// RIPEMD160 computes the RIPEMD-160 digest.
func RIPEMD160(msg []byte) []byte {
	h := ripemd160.New()
	h.Write(msg)
	return h.Sum(nil)
}

// Keccak256 computes the Keccak-256 digest (pre-standardization variant
// used by Ethereum, distinct from NIST SHA3-256).
func Keccak256(msg []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(msg)
	return h.Sum(nil)
}

// OutputLen returns the fixed output length of a hash function, by name.
func OutputLen(name string) int {
	switch name {
	case "sha256", "keccak256":
		return 32
	case "sha1", "ripemd160":
		return 20
	default:
		return 0
	}
}

// ByName returns the hash function registered under name, and whether it
// was found.
func ByName(name string) (Func, bool) {
	switch name {
	case "sha256":
		return SHA256, true
	case "sha1":
		return SHA1, true
	case "ripemd160":
		return RIPEMD160, true
	case "keccak256":
		return Keccak256, true
	default:
		return nil, false
	}
}

// Reverse returns the byte-reversal of b (legacy REVERSE op support).
func Reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
