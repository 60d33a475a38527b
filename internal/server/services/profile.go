// Package services contains server-side business logic. ProfileService
// creates profiles and guards the write-once wrapped master key; UserService
// binds credentials to a profile and issues tokens for it.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/profiles"
	"github.com/google/uuid"
)

// ProfileService provides profile operations:
// - Create: create a profile with a fresh salt
// - GetProfile: read the caller's profile
// - SetEncryptedMasterKey: store the wrapped master key exactly once
type ProfileService struct {
	repo profiles.Repository
}

func NewProfileService(repo profiles.Repository) *ProfileService {
	return &ProfileService{repo: repo}
}

// Create stores a profile with a random hex salt of common.SaltSize bytes.
func (s *ProfileService) Create(ctx context.Context) (*models.Profile, error) {
	salt, err := common.MakeRandHexString(common.SaltSize)
	if err != nil {
		return nil, common.ErrorInternal
	}

	p, err := s.repo.Create(ctx, &models.Profile{ID: uuid.NewString(), EncryptionSalt: salt})
	if err != nil {
		return nil, fmt.Errorf("error creating profile: %w", err)
	}

	return p, nil
}
// GetProfile returns the profile of userID, or common.ErrorNotFound.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error reading profile: %w", err)
	}
	return p, nil
}

// SetEncryptedMasterKey stores blob for userID. It fails with
// common.ErrMasterKeyAlreadySet when a key is already present.
func (s *ProfileService) SetEncryptedMasterKey(ctx context.Context, userID string, blob string) error {
	if blob == "" {
		return fmt.Errorf("%w: empty encrypted master key", common.ErrorInvalidArgument)
	}

	err := s.repo.SetEncryptedMasterKey(ctx, userID, blob)
	if err != nil {
		if errors.Is(err, common.ErrMasterKeyAlreadySet) || errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error storing encrypted master key: %w", err)
	}
	return nil
}
