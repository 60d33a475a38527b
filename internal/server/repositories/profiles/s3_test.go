package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/medkeeper/internal/server/models"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/s3store/s3storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Repository_Layout(t *testing.T) {
	api := s3storetest.New()
	repo := NewS3Repository(api, "bucket")
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.Profile{ID: "p1", EncryptionSalt: "salt"})
	require.NoError(t, err)
	require.NoError(t, repo.SetEncryptedMasterKey(ctx, "p1", "blob"))

	assert.Contains(t, api.Objects, "bucket/profiles/p1/profile.json")
	assert.Equal(t, []byte("blob"), api.Objects["bucket/profiles/p1/encrypted_user_master_key"])
	assert.NotContains(t, string(api.Objects["bucket/profiles/p1/profile.json"]), "blob")
}

func TestS3Repository_CreateTwiceFails(t *testing.T) {
	repo := NewS3Repository(s3storetest.New(), "bucket")
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.Profile{ID: "p1", EncryptionSalt: "salt"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.Profile{ID: "p1", EncryptionSalt: "other"})
	require.ErrorContains(t, err, "already exists")

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "salt", got.EncryptionSalt)
}

func TestS3Repository_TransportErrors(t *testing.T) {
	api := s3storetest.New()
	repo := NewS3Repository(api, "bucket")
	ctx := context.Background()

	api.GetErr = errors.New("connection refused")
	_, err := repo.GetByID(ctx, "p1")
	require.ErrorContains(t, err, "s3 error")

	api.GetErr = nil
	api.PutErr = errors.New("connection refused")
	_, err = repo.Create(ctx, &models.Profile{ID: "p1", EncryptionSalt: "salt"})
	require.ErrorContains(t, err, "s3 error")
}

func TestS3Repository_MalformedProfile(t *testing.T) {
	api := s3storetest.New()
	api.Objects["bucket/profiles/p1/profile.json"] = []byte("{not json")
	repo := NewS3Repository(api, "bucket")

	_, err := repo.GetByID(context.Background(), "p1")
	require.ErrorContains(t, err, "malformed profile")
}
