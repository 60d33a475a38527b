// Package profiles adapts the profile server to the unlock.ProfileStore
// contract, optionally backed by a local cache for offline unlock.
package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/medkeeper/internal/client/client"
	"github.com/dmitrijs2005/medkeeper/internal/client/unlock"
)

type profileClient interface {
	ReadProfile(ctx context.Context) (*client.Profile, error)
	WriteEncryptedMasterKey(ctx context.Context, blob string) error
}

// Refresher renews the session's access token.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RemoteStore reads and writes the profile on the server only.
type RemoteStore struct {
	c         profileClient
	refresher Refresher
}

func NewRemoteStore(c profileClient) *RemoteStore {
	return &RemoteStore{c: c}
}

// WithRefresher makes the store renew an expired access token once and
// retry before reporting the session as invalid.
func (s *RemoteStore) WithRefresher(r Refresher) *RemoteStore {
	s.refresher = r
	return s
}

func (s *RemoteStore) ReadProfile(ctx context.Context) (*unlock.Profile, error) {
	p, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return toUnlockProfile(p), nil
}

func (s *RemoteStore) WriteEncryptedMasterKey(ctx context.Context, blob string) error {
	return s.withRefresh(ctx, func() error {
		return s.c.WriteEncryptedMasterKey(ctx, blob)
	})
}

func (s *RemoteStore) fetch(ctx context.Context) (*client.Profile, error) {
	var p *client.Profile
	err := s.withRefresh(ctx, func() error {
		var err error
		p, err = s.c.ReadProfile(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *RemoteStore) withRefresh(ctx context.Context, call func() error) error {
	err := call()
	if err == nil || s.refresher == nil || !errors.Is(err, client.ErrUnauthorized) {
		return mapError(err)
	}

	if rerr := s.refresher.Refresh(ctx); rerr != nil {
		if errors.Is(rerr, client.ErrUnavailable) {
			return rerr
		}
		return fmt.Errorf("%w: %w", unlock.ErrSessionInvalid, rerr)
	}
	return mapError(call())
}

func toUnlockProfile(p *client.Profile) *unlock.Profile {
	return &unlock.Profile{
		EncryptionSalt:         p.EncryptionSalt,
		EncryptedUserMasterKey: p.EncryptedUserMasterKey,
	}
}

// mapError turns an authorization failure into the session invalidation
// signal the unlock controller reacts to.
func mapError(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w: %w", unlock.ErrSessionInvalid, err)
	}
	return err
}
