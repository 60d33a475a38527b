// Package common defines shared constants, helpers and sentinel errors used
// across client and server layers of medkeeper. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorInvalidArgument = errors.New("invalid argument")

	// ErrMasterKeyAlreadySet is returned by every profile store when a caller
	// tries to replace an existing wrapped master key.
	ErrMasterKeyAlreadySet = errors.New("encrypted master key already set")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrUserExists is returned when a username is already registered.
	ErrUserExists = errors.New("user already exists")
)
