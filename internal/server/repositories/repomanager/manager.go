// Package repomanager opens the configured storage backend and hands out
// its profile, user and refresh token repositories.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/medkeeper/internal/server/config"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Profiles() profiles.Repository
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Close() error
}

// New returns the manager for cfg.Storage.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		return NewPostgresRepositoryManager(cfg.DatabaseDSN)
	case config.StorageS3:
		return NewS3RepositoryManager(ctx, cfg)
	case config.StorageMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// MemoryRepositoryManager keeps everything in process memory.
type MemoryRepositoryManager struct {
	profiles      *profiles.MemoryRepository
	users         *users.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		profiles:      profiles.NewMemoryRepository(),
		users:         users.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Profiles() profiles.Repository      { return m.profiles }
func (m *MemoryRepositoryManager) Users() users.Repository            { return m.users }
func (m *MemoryRepositoryManager) RefreshTokens() refreshtokens.Repository {
	return m.refreshTokens
}
func (m *MemoryRepositoryManager) Close() error { return nil }
