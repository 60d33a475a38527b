package models

import "time"

// Profile is the server-side record of a user. EncryptedUserMasterKey is nil
// until the client completes first-time setup and is never replaced after.
type Profile struct {
	ID                     string
	EncryptionSalt         string
	EncryptedUserMasterKey *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// HasMasterKey reports whether first-time setup has been completed.
func (p *Profile) HasMasterKey() bool {
	return p.EncryptedUserMasterKey != nil
}
