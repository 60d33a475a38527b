// Package users stores login credentials. A user shares its id with the
// profile it signs in to, so re-authenticating always reaches the same
// wrapped master key.
package users

import (
	"context"

	"github.com/dmitrijs2005/medkeeper/internal/server/models"
)

type Repository interface {
	// Create fails with common.ErrUserExists when the username is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetByLogin returns common.ErrorNotFound for an unknown username.
	GetByLogin(ctx context.Context, userName string) (*models.User, error)
}
