package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/medkeeper/internal/client/client"
	"github.com/dmitrijs2005/medkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/medkeeper/internal/client/unlock"
	"github.com/dmitrijs2005/medkeeper/internal/dbx"
	"github.com/dmitrijs2005/medkeeper/internal/logging"
)

// CachedStore keeps a local copy of the salt and the wrapped master key so a
// returning user can unlock while the server is unreachable.
//
// Only reads fall back to the cache. Writes always go to the server, so a
// first-time setup cannot complete offline.
type CachedStore struct {
	remote *RemoteStore
	db     *sql.DB
	log    logging.Logger
}

func NewCachedStore(remote *RemoteStore, db *sql.DB, log logging.Logger) *CachedStore {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &CachedStore{remote: remote, db: db, log: log.With("module", "profiles")}
}

func (s *CachedStore) ReadProfile(ctx context.Context) (*unlock.Profile, error) {
	p, err := s.remote.fetch(ctx)
	if err == nil {
		if cerr := s.save(ctx, p); cerr != nil {
			s.log.Warn(ctx, "failed to cache profile", "error", cerr)
		}
		return toUnlockProfile(p), nil
	}

	if !errors.Is(err, client.ErrUnavailable) {
		return nil, err
	}

	cached, cerr := s.load(ctx)
	if cerr != nil {
		return nil, fmt.Errorf("%w (cache: %v)", err, cerr)
	}
	if cached == nil {
		return nil, err
	}

	s.log.Info(ctx, "server unavailable, using cached profile")
	return cached, nil
}

func (s *CachedStore) WriteEncryptedMasterKey(ctx context.Context, blob string) error {
	if err := s.remote.WriteEncryptedMasterKey(ctx, blob); err != nil {
		return err
	}

	repo := metadata.NewSQLiteRepository(s.db)
	if err := repo.Set(ctx, metadata.KeyEncryptedUserMasterKey, []byte(blob)); err != nil {
		s.log.Warn(ctx, "failed to cache encrypted master key", "error", err)
	}
	return nil
}

func (s *CachedStore) save(ctx context.Context, p *client.Profile) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		if err := repo.Set(ctx, metadata.KeyProfileOwner, []byte(p.UserID)); err != nil {
			return err
		}
		if err := repo.Set(ctx, metadata.KeyEncryptionSalt, []byte(p.EncryptionSalt)); err != nil {
			return err
		}
		if p.EncryptedUserMasterKey == nil {
			return repo.Delete(ctx, metadata.KeyEncryptedUserMasterKey)
		}
		return repo.Set(ctx, metadata.KeyEncryptedUserMasterKey, []byte(*p.EncryptedUserMasterKey))
	})
}

// load returns nil when nothing usable is cached. A profile cached for a
// different user than the one signed in is not usable.
func (s *CachedStore) load(ctx context.Context) (*unlock.Profile, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	owner, err := metadata.GetString(ctx, repo, metadata.KeyProfileOwner)
	if err != nil {
		return nil, err
	}
	current, err := metadata.GetString(ctx, repo, metadata.KeyUserID)
	if err != nil {
		return nil, err
	}
	if owner == "" || owner != current {
		if owner != "" {
			s.log.Warn(ctx, "cached profile belongs to another user, ignoring it")
		}
		return nil, nil
	}

	salt, err := metadata.GetString(ctx, repo, metadata.KeyEncryptionSalt)
	if err != nil {
		return nil, err
	}
	if salt == "" {
		return nil, nil
	}

	p := &unlock.Profile{EncryptionSalt: salt}

	key, err := repo.Get(ctx, metadata.KeyEncryptedUserMasterKey)
	if err != nil {
		return nil, err
	}
	if len(key) > 0 {
		blob := string(key)
		p.EncryptedUserMasterKey = &blob
	}
	return p, nil
}
