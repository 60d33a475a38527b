// Package services contains application services for the medkeeper client.
// AuthService signs a user in and keeps the session tokens in the local
// metadata store so a restart, or an expired access token, does not cut the
// user off from their profile.
package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/medkeeper/internal/client/client"
	"github.com/dmitrijs2005/medkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/cryptox"
	"github.com/dmitrijs2005/medkeeper/internal/dbx"
	"github.com/dmitrijs2005/medkeeper/internal/logging"
)

// ErrNoSession is returned by Refresh when no refresh token is stored.
var ErrNoSession = errors.New("no stored session")

type keyDeriver interface {
	DeriveContext(ctx context.Context, password []byte, salt string) (cryptox.Key, error)
}

// AuthService handles register, login, token refresh and logout.
//
// The login verifier is derived from the password with a per-user auth salt
// that is unrelated to the profile's encryption salt, so the server never
// sees anything that helps it unwrap the master key.
type AuthService struct {
	client client.Client
	db     *sql.DB
	kdf    keyDeriver
	log    logging.Logger

	refreshMu sync.Mutex
}

func NewAuthService(c client.Client, db *sql.DB, kdf keyDeriver, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &AuthService{client: c, db: db, kdf: kdf, log: log.With("module", "auth")}
}

func (a *AuthService) meta() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

// Register creates a user on the server with a fresh auth salt and stores
// the returned session.
func (a *AuthService) Register(ctx context.Context, userName string, password []byte) (*client.Session, error) {
	authSalt, err := common.MakeRandHexString(common.SaltSize)
	if err != nil {
		return nil, err
	}

	verifier, err := a.verifier(ctx, password, authSalt)
	if err != nil {
		return nil, err
	}

	sess, err := a.client.Register(ctx, userName, authSalt, verifier)
	if err != nil {
		return nil, err
	}

	if err := a.saveSession(ctx, userName, sess); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	a.log.Info(ctx, "registered", "user_id", sess.UserID)
	return sess, nil
}

// Login signs userName in again and stores the new session. The server maps
// the credentials to the profile created at registration.
func (a *AuthService) Login(ctx context.Context, userName string, password []byte) (*client.Session, error) {
	authSalt, err := a.client.GetSalt(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("get salt error: %w", err)
	}

	verifier, err := a.verifier(ctx, password, authSalt)
	if err != nil {
		return nil, err
	}

	sess, err := a.client.Login(ctx, userName, verifier)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.saveSession(ctx, userName, sess); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	a.log.Info(ctx, "logged in", "user_id", sess.UserID)
	return sess, nil
}

func (a *AuthService) verifier(ctx context.Context, password []byte, authSalt string) (string, error) {
	key, err := a.kdf.DeriveContext(ctx, password, authSalt)
	if err != nil {
		return "", fmt.Errorf("key derivation error: %w", err)
	}
	defer key.Wipe()

	return hex.EncodeToString(cryptox.MakeVerifier(key)), nil
}

// Refresh trades the stored refresh token for a new session and installs
// it. Refresh tokens are single use, so concurrent calls are serialized.
func (a *AuthService) Refresh(ctx context.Context) error {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	repo := a.meta()
	refreshToken, err := metadata.GetString(ctx, repo, metadata.KeyRefreshToken)
	if err != nil {
		return err
	}
	if refreshToken == "" {
		return ErrNoSession
	}

	sess, err := a.client.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			// spent or expired, keep the user id so 'login' can reuse it
			if derr := repo.Delete(ctx, metadata.KeyRefreshToken); derr != nil {
				a.log.Warn(ctx, "failed to drop refresh token", "error", derr)
			}
		}
		return err
	}

	userName, err := metadata.GetString(ctx, repo, metadata.KeyUserName)
	if err != nil {
		return err
	}
	if err := a.saveSession(ctx, userName, sess); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}

	a.log.Info(ctx, "session refreshed", "user_id", sess.UserID)
	return nil
}

// Restore installs a stored access token on the client and returns who it
// belongs to. Empty results mean there is no stored session.
func (a *AuthService) Restore(ctx context.Context) (userID, userName string, err error) {
	repo := a.meta()

	token, err := metadata.GetString(ctx, repo, metadata.KeyAccessToken)
	if err != nil || token == "" {
		return "", "", err
	}
	if userID, err = metadata.GetString(ctx, repo, metadata.KeyUserID); err != nil {
		return "", "", err
	}
	if userName, err = metadata.GetString(ctx, repo, metadata.KeyUserName); err != nil {
		return "", "", err
	}

	a.client.SetAccessToken(token)
	return userID, userName, nil
}

// Logout forgets the session and the cached profile.
func (a *AuthService) Logout(ctx context.Context) error {
	if err := a.meta().Clear(ctx); err != nil {
		return err
	}
	a.client.SetAccessToken("")
	return nil
}

// saveSession stores sess in one transaction. Switching to a different user
// drops the cached profile of the previous one.
func (a *AuthService) saveSession(ctx context.Context, userName string, sess *client.Session) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		prev, err := metadata.GetString(ctx, repo, metadata.KeyUserID)
		if err != nil {
			return err
		}
		if prev != sess.UserID {
			for _, k := range []string{metadata.KeyProfileOwner, metadata.KeyEncryptionSalt, metadata.KeyEncryptedUserMasterKey} {
				if err := repo.Delete(ctx, k); err != nil {
					return err
				}
			}
		}

		values := map[string]string{
			metadata.KeyUserID:       sess.UserID,
			metadata.KeyUserName:     userName,
			metadata.KeyAccessToken:  sess.AccessToken,
			metadata.KeyRefreshToken: sess.RefreshToken,
		}
		for k, v := range values {
			if err := repo.Set(ctx, k, []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}
