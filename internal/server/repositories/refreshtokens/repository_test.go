package refreshtokens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/medkeeper/internal/common"
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

func TestRepository_ConsumeIsSingleUse(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			repo := mk()
			ctx := context.Background()

			_, err := repo.Consume(ctx, "hash")
			require.ErrorIs(t, err, common.ErrorNotFound)

			require.NoError(t, repo.Create(ctx, "u-1", "hash", time.Hour))

			got, err := repo.Consume(ctx, "hash")
			require.NoError(t, err)
			assert.Equal(t, "u-1", got.UserID)
			assert.WithinDuration(t, time.Now().Add(time.Hour), got.Expires, time.Minute)

			_, err = repo.Consume(ctx, "hash")
			require.ErrorIs(t, err, common.ErrorNotFound)
		})
	}
}

func TestRepository_ExpiredTokenIsStillReturned(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			repo := mk()
			ctx := context.Background()

			require.NoError(t, repo.Create(ctx, "u-1", "old", -time.Minute))

			got, err := repo.Consume(ctx, "old")
			require.NoError(t, err)
			assert.True(t, got.Expires.Before(time.Now()))
		})
	}
}

func TestRepository_ConcurrentConsumeOneWins(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			repo := mk()
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, "u-1", "hash", time.Hour))

			const n = 8
			var wg sync.WaitGroup
			errs := make([]error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = repo.Consume(ctx, "hash")
				}(i)
			}
			wg.Wait()

			ok := 0
			for _, err := range errs {
				if err == nil {
					ok++
					continue
				}
				require.ErrorIs(t, err, common.ErrorNotFound)
			}
			assert.Equal(t, 1, ok)
		})
	}
}

func TestS3Repository_DeleteFailureAfterClaim(t *testing.T) {
	api := s3storetest.New()
	repo := NewS3Repository(api, "bucket")
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, "u-1", "hash", time.Hour))

	api.DeleteErr = errors.New("connection reset")
	_, err := repo.Consume(ctx, "hash")
	require.ErrorContains(t, err, "s3 error")

	api.DeleteErr = nil
	_, err = repo.Consume(ctx, "hash")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
