package users

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/s3store/s3storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends() map[string]func() Repository {
	return map[string]func() Repository{
		"memory": func() Repository { return NewMemoryRepository() },
		"s3":     func() Repository { return NewS3Repository(s3storetest.New(), "bucket") },
	}
}

func TestRepository_Contract(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			repo := mk()
			ctx := context.Background()

			_, err := repo.GetByLogin(ctx, "alice")
			require.ErrorIs(t, err, common.ErrorNotFound)

			created, err := repo.Create(ctx, alice())
			require.NoError(t, err)
			assert.False(t, created.CreatedAt.IsZero())

			got, err := repo.GetByLogin(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "u-1", got.ID)
			assert.Equal(t, "salt", got.AuthSalt)
			assert.Equal(t, []byte("verifier"), got.Verifier)

			other := &models.User{ID: "u-2", UserName: "alice", AuthSalt: "x", Verifier: []byte("y")}
			_, err = repo.Create(ctx, other)
			require.ErrorIs(t, err, common.ErrUserExists)

			got, err = repo.GetByLogin(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "u-1", got.ID)
		})
	}
}

func TestRepository_ConcurrentRegistrationOneWins(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			repo := mk()
			ctx := context.Background()

			const n = 8
			var wg sync.WaitGroup
			errs := make([]error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = repo.Create(ctx, &models.User{ID: "u", UserName: "bob", AuthSalt: "s", Verifier: []byte("v")})
				}(i)
			}
			wg.Wait()

			ok := 0
			for _, err := range errs {
				if err == nil {
					ok++
					continue
				}
				require.ErrorIs(t, err, common.ErrUserExists)
			}
			assert.Equal(t, 1, ok)
		})
	}
}

func TestS3Repository_EscapesUsername(t *testing.T) {
	api := s3storetest.New()
	repo := NewS3Repository(api, "bucket")
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.User{ID: "u-1", UserName: "../profiles/x", AuthSalt: "s", Verifier: []byte("v")})
	require.NoError(t, err)

	_, ok := api.Get("bucket", "users/..%2Fprofiles%2Fx.json")
	assert.True(t, ok)

	got, err := repo.GetByLogin(ctx, "../profiles/x")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
}

func TestS3Repository_MalformedUser(t *testing.T) {
	api := s3storetest.New()
	api.Objects["bucket/users/alice.json"] = []byte("{")

	_, err := NewS3Repository(api, "bucket").GetByLogin(context.Background(), "alice")
	require.ErrorContains(t, err, "malformed user")
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	_, err := repo.Create(ctx, alice())
	require.NoError(t, err)

	got, err := repo.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	got.Verifier[0] = 'X'

	again, err := repo.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("verifier"), again.Verifier)
}
