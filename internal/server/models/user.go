package models

import "time"

// User holds the login credentials of a profile. ID is the profile id.
//
// Verifier is SHA-256 of a key the client derives from the password and
// AuthSalt. AuthSalt is independent of the profile's encryption salt, so the
// verifier says nothing about the key that wraps the master key.
type User struct {
	ID        string
	UserName  string
	AuthSalt  string
	Verifier  []byte
	CreatedAt time.Time
}
