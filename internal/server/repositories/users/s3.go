package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/s3store"
)

const s3Prefix = "users"

// S3Repository stores each user as users/<escaped username>.json. The object
// is written with If-None-Match: *, which makes the username unique.
type S3Repository struct {
	bucket *s3store.Bucket
}

func NewS3Repository(api s3store.API, bucket string) *S3Repository {
	return &S3Repository{bucket: s3store.New(api, bucket)}
}

type s3User struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	AuthSalt  string    `json:"auth_salt"`
	Verifier  []byte    `json:"verifier"`
	CreatedAt time.Time `json:"created_at"`
}

func objectKey(userName string) string {
	return path.Join(s3Prefix, url.PathEscape(userName)+".json")
}

func (r *S3Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now().UTC()

	body, err := json.Marshal(s3User{
		ID:        user.ID,
		UserName:  user.UserName,
		AuthSalt:  user.AuthSalt,
		Verifier:  user.Verifier,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := r.bucket.PutOnce(ctx, objectKey(user.UserName), body, "application/json"); err != nil {
		if errors.Is(err, s3store.ErrObjectExists) {
			return nil, common.ErrUserExists
		}
		return nil, err
	}

	user.CreatedAt = now
	return user, nil
}

func (r *S3Repository) GetByLogin(ctx context.Context, userName string) (*models.User, error) {
	body, err := r.bucket.Get(ctx, objectKey(userName))
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, common.ErrorNotFound
	}

	var stored s3User
	if err := json.Unmarshal(body, &stored); err != nil {
		return nil, fmt.Errorf("s3 error: malformed user %q: %w", userName, err)
	}

	return &models.User{
		ID:        stored.ID,
		UserName:  stored.UserName,
		AuthSalt:  stored.AuthSalt,
		Verifier:  stored.Verifier,
		CreatedAt: stored.CreatedAt,
	}, nil
}
