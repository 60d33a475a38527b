// Package metadata is the CLI's local key/value store. It keeps the access
// token and a cached copy of the profile fields needed to unlock offline.
// Session keys are never written here.
package metadata

import (
	"context"
)

// Well-known keys. KeyUserID, KeyUserName and the tokens describe the
// signed-in session; KeyProfileOwner names the user the cached profile
// fields were read for.
const (
	KeyUserID                 = "user_id"
	KeyUserName               = "username"
	KeyAccessToken            = "access_token"
	KeyRefreshToken           = "refresh_token"
	KeyProfileOwner           = "profile_user_id"
	KeyEncryptionSalt         = "encryption_salt"
	KeyEncryptedUserMasterKey = "encrypted_user_master_key"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
