// Package cryptox contains the cryptographic primitives of the key management
// core: password-based key derivation, AEAD envelope encryption and the
// portable (JWK) serialization of symmetric keys.
//
// All functions are pure: they perform no I/O and never log key material,
// plaintext or ciphertext.
package cryptox

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// KeySize is the length in bytes of every symmetric key handled by the
// package (AES-256).
const KeySize = 32

// Supported password-based key derivation algorithms.
const (
	AlgorithmArgon2id     = "argon2id"
	AlgorithmPBKDF2SHA256 = "pbkdf2-sha256"
)

// Key is a symmetric AES-256 key.
type Key []byte

// Wipe overwrites the key material with zeros.
func (k Key) Wipe() {
	for i := range k {
		k[i] = 0
	}
}

// Clone returns an independent copy of k.
func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	c := make(Key, len(k))
	copy(c, k)
	return c
}

// String never reveals key material, so a Key accidentally passed to a
// logger or fmt verb prints a placeholder.
func (k Key) String() string {
	return "cryptox.Key(redacted)"
}

// KDF describes a deliberately expensive password-based key derivation.
//
// Argon2id uses Time, MemoryKiB and Threads; PBKDF2-SHA256 uses Iterations.
// The zero value is not usable, start from DefaultKDF.
type KDF struct {
	Algorithm  string
	Time       uint32
	MemoryKiB  uint32
	Threads    uint8
	Iterations int
}

// DefaultKDF returns Argon2id with one pass over 64 MiB on 4 lanes.
func DefaultKDF() KDF {
	return KDF{
		Algorithm:  AlgorithmArgon2id,
		Time:       1,
		MemoryKiB:  64 * 1024,
		Threads:    4,
		Iterations: 600_000,
	}
}

// NewKDF returns DefaultKDF switched to the named algorithm.
func NewKDF(algorithm string) (KDF, error) {
	k := DefaultKDF()
	switch algorithm {
	case "", AlgorithmArgon2id:
		k.Algorithm = AlgorithmArgon2id
	case AlgorithmPBKDF2SHA256:
		k.Algorithm = AlgorithmPBKDF2SHA256
	default:
		return KDF{}, fmt.Errorf("%w: unknown kdf algorithm %q", ErrInvalidInput, algorithm)
	}
	return k, nil
}

// Derive deterministically derives a KeySize-byte key from password and salt.
//
// It fails only on invalid input (empty password, empty or malformed salt,
// unusable parameters). A wrong password derives a different, equally valid
// looking key; wrongness is detected later by Decrypt.
//
// Derive is CPU bound and may take hundreds of milliseconds; see
// DeriveContext for an abandonable variant.
func (k KDF) Derive(password []byte, salt string) (Key, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("%w: empty password", ErrInvalidInput)
	}
	if err := validateSalt(salt); err != nil {
		return nil, err
	}

	switch k.Algorithm {
	case AlgorithmArgon2id:
		if k.Time == 0 || k.MemoryKiB == 0 || k.Threads == 0 {
			return nil, fmt.Errorf("%w: argon2id parameters must be positive", ErrInvalidInput)
		}
		return Key(argon2.IDKey(password, []byte(salt), k.Time, k.MemoryKiB, k.Threads, KeySize)), nil
	case AlgorithmPBKDF2SHA256:
		if k.Iterations <= 0 {
			return nil, fmt.Errorf("%w: pbkdf2 iterations must be positive", ErrInvalidInput)
		}
		return Key(pbkdf2.Key(password, []byte(salt), k.Iterations, KeySize, sha256.New)), nil
	default:
		return nil, fmt.Errorf("%w: unknown kdf algorithm %q", ErrInvalidInput, k.Algorithm)
	}
}

type deriveResult struct {
	key Key
	err error
}

// DeriveContext runs Derive on its own goroutine and returns ctx.Err() if the
// context is done first. The abandoned result is wiped once it arrives.
func (k KDF) DeriveContext(ctx context.Context, password []byte, salt string) (Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// the goroutine must not observe the caller wiping its password buffer
	pw := make([]byte, len(password))
	copy(pw, password)

	done := make(chan deriveResult, 1)
	go func() {
		key, err := k.Derive(pw, salt)
		wipe(pw)
		done <- deriveResult{key: key, err: err}
	}()

	select {
	case r := <-done:
		return r.key, r.err
	case <-ctx.Done():
		go func() {
			r := <-done
			r.key.Wipe()
		}()
		return nil, ctx.Err()
	}
}

func validateSalt(salt string) error {
	if salt == "" {
		return fmt.Errorf("%w: empty salt", ErrInvalidInput)
	}
	if !utf8.ValidString(salt) {
		return fmt.Errorf("%w: salt is not valid utf-8", ErrInvalidInput)
	}
	if strings.TrimSpace(salt) == "" {
		return fmt.Errorf("%w: blank salt", ErrInvalidInput)
	}
	return nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
