package unlock

import (
	"context"

	"github.com/dmitrijs2005/medkeeper/internal/cryptox"
)

// Profile carries the two profile fields the unlock flow depends on.
type Profile struct {
	EncryptionSalt string
	// EncryptedUserMasterKey is nil until the first successful unlock.
	EncryptedUserMasterKey *string
}

// HasMasterKey reports whether a wrapped master key is stored.
func (p *Profile) HasMasterKey() bool {
	return p.EncryptedUserMasterKey != nil
}

// ProfileStore reads and writes the current user's profile. The user is
// implied by the authenticated session.
//
// Implementations return an error wrapping ErrSessionInvalid when the
// session is no longer authorized, and must refuse to overwrite a wrapped
// master key that is already set.
type ProfileStore interface {
	ReadProfile(ctx context.Context) (*Profile, error)
	WriteEncryptedMasterKey(ctx context.Context, blob string) error
}

// KeyDeriver turns a password and salt into the personal key.
// cryptox.KDF satisfies it.
type KeyDeriver interface {
	DeriveContext(ctx context.Context, password []byte, salt string) (cryptox.Key, error)
}

// KeyStore holds the session keys. keystore.Store satisfies it.
type KeyStore interface {
	Generation() uint64
	SetIfGeneration(gen uint64, personal, master cryptox.Key) (bool, error)
	Clear()
	IsUnlocked() bool
}
