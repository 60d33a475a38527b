package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
)

// MemoryRepository keeps users in a map keyed by username.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User)}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserName]; ok {
		return nil, common.ErrUserExists
	}

	user.CreatedAt = time.Now().UTC()
	stored := *user
	stored.Verifier = append([]byte(nil), user.Verifier...)
	r.users[user.UserName] = stored

	return user, nil
}

func (r *MemoryRepository) GetByLogin(ctx context.Context, userName string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Verifier = append([]byte(nil), u.Verifier...)
	return &u, nil
}
