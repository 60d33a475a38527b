package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/server/auth"
	"github.com/dmitrijs2005/medkeeper/internal/server/config"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/users"
)

const (
	maxUserNameLen = 64
	maxAuthSaltLen = 128
)

// TokenPair is what a successful registration, login or refresh returns.
// UserID is the profile id the tokens are bound to.
type TokenPair struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

type profileCreator interface {
	Create(ctx context.Context) (*models.Profile, error)
}

// UserService binds a username and password verifier to a profile. Login
// and refresh always resolve to the profile created at registration, so an
// expired session can be re-established without losing the wrapped master
// key.
type UserService struct {
	users                        users.Repository
	refreshTokens                refreshtokens.Repository
	profiles                     profileCreator
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(u users.Repository, rt refreshtokens.Repository, p profileCreator, cfg *config.Config) *UserService {
	return &UserService{
		users:                        u,
		refreshTokens:                rt,
		profiles:                     p,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// NormalizeUserName trims surrounding space and lowercases userName.
func NormalizeUserName(userName string) string {
	return strings.ToLower(strings.TrimSpace(userName))
}

func validateCredentials(userName, authSalt string, verifier []byte) error {
	switch {
	case userName == "" || len(userName) > maxUserNameLen || !utf8.ValidString(userName):
		return fmt.Errorf("%w: bad username", common.ErrorInvalidArgument)
	case strings.TrimSpace(authSalt) == "" || len(authSalt) > maxAuthSaltLen:
		return fmt.Errorf("%w: bad auth salt", common.ErrorInvalidArgument)
	case len(verifier) != sha256.Size:
		return fmt.Errorf("%w: bad verifier", common.ErrorInvalidArgument)
	}
	return nil
}

// Register creates a profile and the user that signs in to it. A taken
// username fails with common.ErrUserExists before any profile is created.
func (s *UserService) Register(ctx context.Context, userName, authSalt string, verifier []byte) (*TokenPair, error) {
	userName = NormalizeUserName(userName)
	if err := validateCredentials(userName, authSalt, verifier); err != nil {
		return nil, err
	}

	_, err := s.users.GetByLogin(ctx, userName)
	switch {
	case err == nil:
		return nil, common.ErrUserExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	p, err := s.profiles.Create(ctx)
	if err != nil {
		return nil, err
	}

	// A concurrent registration of the same name can still win here; the
	// profile created above is then left without credentials.
	user := &models.User{ID: p.ID, UserName: userName, AuthSalt: authSalt, Verifier: verifier}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.generateTokenPair(ctx, p.ID)
}

// GetSalt returns the auth salt of userName. Unknown users get a stable
// salt derived from the server secret, so the answer does not reveal which
// usernames exist.
func (s *UserService) GetSalt(ctx context.Context, userName string) (string, error) {
	userName = NormalizeUserName(userName)
	if userName == "" {
		return "", fmt.Errorf("%w: bad username", common.ErrorInvalidArgument)
	}

	user, err := s.users.GetByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.decoySalt(userName), nil
		}
		return "", common.ErrorInternal
	}

	return user.AuthSalt, nil
}

func (s *UserService) decoySalt(userName string) string {
	mac := hmac.New(sha256.New, s.jwtSecret)
	mac.Write([]byte("auth-salt:" + userName))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *UserService) checkVerifier(verifier []byte, verifierCandidate []byte) bool {
	return subtle.ConstantTimeCompare(verifier, verifierCandidate) == 1
}

// Login checks verifierCandidate for userName. Unknown users and wrong
// verifiers both fail with common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, userName string, verifierCandidate []byte) (*TokenPair, error) {
	user, err := s.users.GetByLogin(ctx, NormalizeUserName(userName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !s.checkVerifier(user.Verifier, verifierCandidate) {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, user.ID)
}

// RefreshToken exchanges refreshToken for a new pair. The presented token is
// consumed whether or not it has expired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrorUnauthorized
	}

	token, err := s.refreshTokens.Consume(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error consuming refresh token: %w", err)
	}

	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	return s.generateTokenPair(ctx, token.UserID)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.refreshTokens.Create(ctx, userID, hashToken(refreshToken), s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &TokenPair{UserID: userID, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
