package refreshtokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/s3store"
)

const s3Prefix = "refresh_tokens"

// S3Repository keeps refresh_tokens/<hash>.json per token. Consuming a token
// first claims refresh_tokens/<hash>.consumed with If-None-Match: *, so only
// one caller can win it, and then deletes the token object. The claim object
// stays behind as a tombstone.
type S3Repository struct {
	bucket *s3store.Bucket
}

func NewS3Repository(api s3store.API, bucket string) *S3Repository {
	return &S3Repository{bucket: s3store.New(api, bucket)}
}

type s3Token struct {
	UserID  string    `json:"user_id"`
	Expires time.Time `json:"expires_at"`
}

func tokenKey(hash string) string   { return path.Join(s3Prefix, hash+".json") }
func consumedKey(hash string) string { return path.Join(s3Prefix, hash+".consumed") }

func (r *S3Repository) Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) error {
	body, err := json.Marshal(s3Token{UserID: userID, Expires: time.Now().UTC().Add(validity)})
	if err != nil {
		return err
	}
	return r.bucket.PutOnce(ctx, tokenKey(tokenHash), body, "application/json")
}

func (r *S3Repository) Consume(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	body, err := r.bucket.Get(ctx, tokenKey(tokenHash))
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, common.ErrorNotFound
	}

	var stored s3Token
	if err := json.Unmarshal(body, &stored); err != nil {
		return nil, fmt.Errorf("s3 error: malformed refresh token: %w", err)
	}

	if err := r.bucket.PutOnce(ctx, consumedKey(tokenHash), nil, "text/plain"); err != nil {
		if errors.Is(err, s3store.ErrObjectExists) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	if err := r.bucket.Delete(ctx, tokenKey(tokenHash)); err != nil {
		return nil, err
	}

	return &models.RefreshToken{UserID: stored.UserID, TokenHash: tokenHash, Expires: stored.Expires}, nil
}
