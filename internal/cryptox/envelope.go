package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Envelope blob layout before base64 (std, padded) encoding:
//
//	+---------+-----------+---------------------------+
//	| version | nonce     | ciphertext || GCM tag     |
//	| 1 byte  | 12 bytes  | len(plaintext) + 16 bytes |
//	+---------+-----------+---------------------------+
//
// The layout must stay stable: a blob written in one session is decrypted
// in later sessions, possibly by another runtime.
const (
	envelopeVersion = 0x01
	nonceSize       = 12
	tagSize         = 16
	headerSize      = 1 + nonceSize
)

func newGCM(key Key) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidInput, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under key with AES-256-GCM and a fresh random
// nonce, and returns a self-contained base64 blob.
//
// Example:
//
//	key, _ := GenerateKey()
//	blob, err := Encrypt([]byte("hello"), key)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	plain, err := Decrypt(blob, key) // []byte("hello")
func Encrypt(plaintext []byte, key Key) (string, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	out := make([]byte, headerSize, headerSize+len(plaintext)+tagSize)
	out[0] = envelopeVersion
	if _, err := rand.Read(out[1:headerSize]); err != nil {
		return "", err
	}

	out = aesgcm.Seal(out, out[1:headerSize], plaintext, nil)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a blob produced by Encrypt.
//
// Any failure to authenticate (wrong key, modified bytes, truncated or
// otherwise unparseable blob) is reported as ErrAuthentication. A key of
// the wrong size is ErrInvalidInput.
func Decrypt(blob string, key Key) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: blob is not base64", ErrAuthentication)
	}
	if len(raw) < headerSize+tagSize {
		return nil, fmt.Errorf("%w: blob too short", ErrAuthentication)
	}
	if raw[0] != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported blob version %d", ErrAuthentication, raw[0])
	}

	plaintext, err := aesgcm.Open(nil, raw[1:headerSize], raw[headerSize:], nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
