package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/server/auth"
	"github.com/dmitrijs2005/medkeeper/internal/server/config"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc      *UserService
	profiles *ProfileService
	tokens   *refreshtokens.MemoryRepository
}

func newUserFixture(refreshValidity time.Duration) *userFixture {
	ps := NewProfileService(profiles.NewMemoryRepository())
	rt := refreshtokens.NewMemoryRepository()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: refreshValidity,
	}
	return &userFixture{
		svc:      NewUserService(users.NewMemoryRepository(), rt, ps, cfg),
		profiles: ps,
		tokens:   rt,
	}
}

func verifier(b byte) []byte {
	v := make([]byte, sha256.Size)
	for i := range v {
		v[i] = b
	}
	return v
}

func TestUserRegister_BindsUserToNewProfile(t *testing.T) {
	f := newUserFixture(time.Hour)
	ctx := context.Background()

	pair, err := f.svc.Register(ctx, "  Alice ", "authsalt", verifier(1))
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)

	userID, err := auth.GetUserIDFromToken(pair.AccessToken, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, pair.UserID, userID)

	p, err := f.profiles.GetProfile(ctx, pair.UserID)
	require.NoError(t, err)
	assert.NotEmpty(t, p.EncryptionSalt)

	_, err = f.svc.Register(ctx, "alice", "other", verifier(2))
	require.ErrorIs(t, err, common.ErrUserExists)
}

func TestUserRegister_RejectsBadInput(t *testing.T) {
	f := newUserFixture(time.Hour)
	ctx := context.Background()

	cases := map[string]struct {
		user, salt string
		verifier   []byte
	}{
		"empty username": {"   ", "s", verifier(1)},
		"long username":  {string(make([]byte, maxUserNameLen+1)), "s", verifier(1)},
		"blank salt":     {"bob", " ", verifier(1)},
		"short verifier": {"bob", "s", []byte("short")},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tc.user, tc.salt, tc.verifier)
			require.ErrorIs(t, err, common.ErrorInvalidArgument)
		})
	}
}

func TestUserLogin(t *testing.T) {
	f := newUserFixture(time.Hour)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "alice", "authsalt", verifier(1))
	require.NoError(t, err)

	pair, err := f.svc.Login(ctx, "ALICE", verifier(1))
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, pair.UserID)
	assert.NotEqual(t, reg.RefreshToken, pair.RefreshToken)

	_, err = f.svc.Login(ctx, "alice", verifier(2))
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = f.svc.Login(ctx, "ghost", verifier(1))
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserGetSalt(t *testing.T) {
	f := newUserFixture(time.Hour)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "authsalt", verifier(1))
	require.NoError(t, err)

	salt, err := f.svc.GetSalt(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "authsalt", salt)

	decoy1, err := f.svc.GetSalt(ctx, "ghost")
	require.NoError(t, err)
	decoy2, err := f.svc.GetSalt(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, decoy1, decoy2)
	assert.NotEmpty(t, decoy1)

	_, err = f.svc.GetSalt(ctx, " ")
	require.ErrorIs(t, err, common.ErrorInvalidArgument)
}

func TestUserRefreshToken_Rotates(t *testing.T) {
	f := newUserFixture(time.Hour)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "alice", "authsalt", verifier(1))
	require.NoError(t, err)

	pair, err := f.svc.RefreshToken(ctx, reg.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, pair.UserID)
	assert.NotEqual(t, reg.RefreshToken, pair.RefreshToken)

	_, err = f.svc.RefreshToken(ctx, reg.RefreshToken)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = f.svc.RefreshToken(ctx, "")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserRefreshToken_Expired(t *testing.T) {
	f := newUserFixture(-time.Minute)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "alice", "authsalt", verifier(1))
	require.NoError(t, err)

	_, err = f.svc.RefreshToken(ctx, reg.RefreshToken)
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)

	// an expired token is gone after the first attempt
	_, err = f.svc.RefreshToken(ctx, reg.RefreshToken)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserRefreshToken_StoresOnlyHash(t *testing.T) {
	f := newUserFixture(time.Hour)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "alice", "authsalt", verifier(1))
	require.NoError(t, err)

	_, err = f.tokens.Consume(ctx, reg.RefreshToken)
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = f.tokens.Consume(ctx, hashToken(reg.RefreshToken))
	require.NoError(t, err)
}

type failingUsers struct{ err error }

func (f failingUsers) Create(context.Context, *models.User) (*models.User, error) { return nil, f.err }
func (f failingUsers) GetByLogin(context.Context, string) (*models.User, error)   { return nil, f.err }

func TestUserService_RepoErrors(t *testing.T) {
	ps := NewProfileService(profiles.NewMemoryRepository())
	cfg := &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour, RefreshTokenValidityDuration: time.Hour}
	svc := NewUserService(failingUsers{err: errors.New("db down")}, refreshtokens.NewMemoryRepository(), ps, cfg)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s", verifier(1))
	require.ErrorContains(t, err, "error looking up user")

	_, err = svc.Login(ctx, "alice", verifier(1))
	require.ErrorIs(t, err, common.ErrorInternal)

	_, err = svc.GetSalt(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorInternal)
}
