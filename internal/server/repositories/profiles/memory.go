package profiles

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
)

// MemoryRepository keeps profiles in a map. Data is lost on restart.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]models.Profile)}
}

func (r *MemoryRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.ID]; ok {
		return nil, common.ErrorInternal
	}

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.EncryptedUserMasterKey = nil
	r.profiles[p.ID] = *p

	return p, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if p.EncryptedUserMasterKey != nil {
		key := *p.EncryptedUserMasterKey
		p.EncryptedUserMasterKey = &key
	}
	return &p, nil
}

func (r *MemoryRepository) SetEncryptedMasterKey(ctx context.Context, id string, blob string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return common.ErrorNotFound
	}
	if p.EncryptedUserMasterKey != nil {
		return common.ErrMasterKeyAlreadySet
	}

	p.EncryptedUserMasterKey = &blob
	p.UpdatedAt = time.Now().UTC()
	r.profiles[id] = p
	return nil
}
