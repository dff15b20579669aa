package profile

import (
	"context"
	"slices"
	"sync"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/pkg/keylock"
)

// MemoryStore keeps profiles in process memory. Callers only ever see clones.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[uint]*model.CustomerProfile
	locks    *keylock.KeyedMutex[uint]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[uint]*model.CustomerProfile),
		locks:    keylock.New[uint](),
	}
}

func (s *MemoryStore) Get(_ context.Context, userID uint) (*model.CustomerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, p *model.CustomerProfile) error {
	unlock := s.locks.Lock(p.UserID)
	defer unlock()
	s.store(p)
	return nil
}

func (s *MemoryStore) store(p *model.CustomerProfile) {
	s.mu.Lock()
	s.profiles[p.UserID] = p.Clone()
	s.mu.Unlock()
}

func (s *MemoryStore) Upsert(ctx context.Context, userID uint, mutate MutateFunc) (*model.CustomerProfile, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	p, err := s.Get(ctx, userID)
	exists := err == nil
	if !exists {
		p = newProfile(userID)
	}
	if err := mutate(p, exists); err != nil {
		return nil, err
	}
	p.UserID = userID
	s.store(p)
	return p.Clone(), nil
}

func (s *MemoryStore) ListUserIDs(_ context.Context) ([]uint, error) {
	s.mu.RLock()
	ids := make([]uint, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids, nil
}

func (s *MemoryStore) Close() error { return nil }
