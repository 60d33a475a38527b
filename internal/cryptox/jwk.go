package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

const (
	jwkKeyType   = "oct"
	jwkAlgorithm = "A256GCM"
)

// jwk is the canonical serialized key form. Field order is fixed by the
// struct so ExportKey always produces the same bytes for the same key, and
// matches what WebCrypto's exportKey("jwk", ...) emits for an AES-GCM key.
type jwk struct {
	Kty    string   `json:"kty"`
	K      string   `json:"k"`
	Alg    string   `json:"alg,omitempty"`
	Ext    bool     `json:"ext"`
	KeyOps []string `json:"key_ops,omitempty"`
}

// GenerateKey returns a fresh random KeySize-byte key.
func GenerateKey() (Key, error) {
	k := make(Key, KeySize)
	if _, err := rand.Read(k); err != nil {
		return nil, err
	}
	return k, nil
}

// ExportKey serializes key as a JWK JSON string:
//
//	{"kty":"oct","k":"<base64url>","alg":"A256GCM","ext":true,"key_ops":["encrypt","decrypt"]}
func ExportKey(key Key) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidInput, KeySize, len(key))
	}
	b, err := json.Marshal(jwk{
		Kty:    jwkKeyType,
		K:      base64.RawURLEncoding.EncodeToString(key),
		Alg:    jwkAlgorithm,
		Ext:    true,
		KeyOps: []string{"encrypt", "decrypt"},
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ImportKey parses a string produced by ExportKey. Anything that is not a
// 256-bit octet-sequence JWK yields ErrMalformedKey.
func ImportKey(serialized string) (Key, error) {
	var j jwk
	if err := json.Unmarshal([]byte(serialized), &j); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	if j.Kty != jwkKeyType {
		return nil, fmt.Errorf("%w: unexpected kty %q", ErrMalformedKey, j.Kty)
	}
	if j.Alg != "" && j.Alg != jwkAlgorithm {
		return nil, fmt.Errorf("%w: unexpected alg %q", ErrMalformedKey, j.Alg)
	}

	k, err := base64.RawURLEncoding.DecodeString(j.K)
	if err != nil {
		return nil, fmt.Errorf("%w: k is not base64url", ErrMalformedKey)
	}
	if len(k) != KeySize {
		wipe(k)
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrMalformedKey, KeySize, len(k))
	}
	return Key(k), nil
}
