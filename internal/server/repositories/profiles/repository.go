// Package profiles stores server-side profiles. Three backends share one
// contract: PostgreSQL, S3-compatible object storage and an in-memory map.
//
// SetEncryptedMasterKey is write-once in every backend. A second write fails
// with common.ErrMasterKeyAlreadySet, so a wrapped master key can never be
// silently replaced by a concurrent first-time setup.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/medkeeper/internal/server/models"
)

type Repository interface {
	// Create stores a new profile without a master key.
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	// GetByID returns common.ErrorNotFound for an unknown id.
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	// SetEncryptedMasterKey stores blob unless a key is already present.
	SetEncryptedMasterKey(ctx context.Context, id string, blob string) error
}
