// Package refreshtokens stores refresh tokens by their SHA-256 hash.
//
// Tokens are single use: Consume removes the token it returns, and of two
// concurrent Consume calls for the same hash at most one succeeds.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/medkeeper/internal/server/models"
)

type Repository interface {
	// Create stores tokenHash for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) error
	// Consume removes tokenHash and returns what was stored for it. An
	// unknown or already consumed hash yields common.ErrorNotFound. Expired
	// tokens are returned too; checking Expires is the caller's job.
	Consume(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
}
