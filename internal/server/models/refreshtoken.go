package models

import "time"

// RefreshToken is a stored refresh token. Only the SHA-256 of the token is
// kept; the token itself is known to the client alone.
type RefreshToken struct {
	UserID    string
	TokenHash string
	Expires   time.Time
}
