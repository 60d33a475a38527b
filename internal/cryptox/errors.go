package cryptox

import "errors"

var (
	// ErrInvalidInput is returned for empty passwords, empty or malformed
	// salts, wrongly sized keys and unusable KDF parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuthentication is returned by Decrypt when the key is wrong or the
	// blob was tampered with or is not a blob at all.
	ErrAuthentication = errors.New("authentication failed")

	// ErrMalformedKey is returned by ImportKey for input that is not a valid
	// serialized key.
	ErrMalformedKey = errors.New("malformed key")
)
