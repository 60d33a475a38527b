package cryptox

import "crypto/sha256"

// MakeVerifier returns SHA-256 of a login key. The server stores only the
// verifier, never the key it was computed from.
func MakeVerifier(key Key) []byte {
	sum := sha256.Sum256(key)
	return sum[:]
}
