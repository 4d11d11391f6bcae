package role

import (
	"context"
	"fmt"
	"sync"

	"paralelogram/internal/user/models"
	"paralelogram/pkg/platform/sentinel"
)

// InMemoryStore holds a fixed role catalogue.
type InMemoryStore struct {
	mu    sync.RWMutex
	roles map[string]models.Role
}

// NewInMemory seeds the store with roles. Ids are assigned when zero.
func NewInMemory(roles ...models.Role) *InMemoryStore {
	s := &InMemoryStore{roles: make(map[string]models.Role, len(roles))}
	for i, r := range roles {
		if r.ID == 0 {
			r.ID = int64(i + 1)
		}
		s.roles[r.RoleName] = r
	}
	return s
}

func (s *InMemoryStore) FindByRoleName(_ context.Context, roleName string) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleName]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleName, sentinel.ErrNotFound)
	}
	return &r, nil
}
