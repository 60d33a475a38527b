package profiles

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

const (
	s3Prefix        = "profiles"
	s3ProfileObject = "profile.json"
	s3KeyObject     = "encrypted_user_master_key"
)

// S3Repository stores each profile as two objects under profiles/<id>/:
// profile.json with the immutable fields and encrypted_user_master_key with
// the wrapped key. Both are written with If-None-Match: * so neither can be
// overwritten.
type S3Repository struct {
	bucket *s3store.Bucket
}

func NewS3Repository(api s3store.API, bucket string) *S3Repository {
	return &S3Repository{bucket: s3store.New(api, bucket)}
}

type s3Profile struct {
	ID             string    `json:"id"`
	EncryptionSalt string    `json:"encryption_salt"`
	CreatedAt      time.Time `json:"created_at"`
}

func objectKey(id, name string) string {
	return path.Join(s3Prefix, id, name)
}

func (r *S3Repository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	now := time.Now().UTC()

	body, err := json.Marshal(s3Profile{ID: p.ID, EncryptionSalt: p.EncryptionSalt, CreatedAt: now})
	if err != nil {
		return nil, err
	}

	if err := r.bucket.PutOnce(ctx, objectKey(p.ID, s3ProfileObject), body, "application/json"); err != nil {
		if errors.Is(err, s3store.ErrObjectExists) {
			return nil, fmt.Errorf("s3 error: profile %s already exists", p.ID)
		}
		return nil, err
	}

	p.CreatedAt, p.UpdatedAt = now, now
	p.EncryptedUserMasterKey = nil
	return p, nil
}

func (r *S3Repository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	body, err := r.bucket.Get(ctx, objectKey(id, s3ProfileObject))
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, common.ErrorNotFound
	}

	var stored s3Profile
	if err := json.Unmarshal(body, &stored); err != nil {
		return nil, fmt.Errorf("s3 error: malformed profile %s: %w", id, err)
	}

	p := &models.Profile{
		ID:             stored.ID,
		EncryptionSalt: stored.EncryptionSalt,
		CreatedAt:      stored.CreatedAt,
		UpdatedAt:      stored.CreatedAt,
	}

	key, err := r.bucket.Get(ctx, objectKey(id, s3KeyObject))
	if err != nil {
		return nil, err
	}
	if key != nil {
		blob := string(key)
		p.EncryptedUserMasterKey = &blob
	}

	return p, nil
}

func (r *S3Repository) SetEncryptedMasterKey(ctx context.Context, id string, blob string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}

	err := r.bucket.PutOnce(ctx, objectKey(id, s3KeyObject), []byte(blob), "text/plain")
	if errors.Is(err, s3store.ErrObjectExists) {
		return common.ErrMasterKeyAlreadySet
	}
	return err
}
