package client

import (
	"context"
)

// Profile is the server's view of the current user's profile.
type Profile struct {
	UserID                 string
	EncryptionSalt         string
	EncryptedUserMasterKey *string
}

// Session is a signed-in user's token pair. UserID is the profile id.
type Session struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

type Client interface {
	Close() error
	// Register creates a user and its profile. Register, Login and Refresh
	// install the returned access token on the client for subsequent calls.
	Register(ctx context.Context, userName, authSalt, verifier string) (*Session, error)
	// GetSalt returns the auth salt to derive the login verifier with.
	GetSalt(ctx context.Context, userName string) (string, error)
	Login(ctx context.Context, userName, verifier string) (*Session, error)
	// Refresh exchanges a refresh token for a new session. The old refresh
	// token is spent either way.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	ReadProfile(ctx context.Context) (*Profile, error)
	WriteEncryptedMasterKey(ctx context.Context, blob string) error
	Ping(ctx context.Context) error
	SetAccessToken(token string)
}
