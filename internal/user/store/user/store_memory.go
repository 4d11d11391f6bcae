package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"paralelogram/internal/user/models"
	"paralelogram/pkg/platform/sentinel"
)

// InMemoryStore keeps users in a map keyed by user name.
type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[string]*models.User
	nextID int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]*models.User)}
}

func (s *InMemoryStore) FindByUserName(_ context.Context, userName string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userName]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userName, sentinel.ErrNotFound)
	}
	clone := *u
	return &clone, nil
}

func (s *InMemoryStore) Save(_ context.Context, u *models.User) error {
	if u.Role == nil {
		return fmt.Errorf("save user %s: %w", u.UserName, sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.UserName == u.UserName || existing.UserID == u.UserID ||
			(u.Email != "" && existing.Email == u.Email) {
			return fmt.Errorf("save user %s: %w", u.UserName, sentinel.ErrConflict)
		}
	}
	s.nextID++
	now := time.Now()
	u.ID = s.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	u.UpdatedBy = u.CreatedBy
	clone := *u
	s.users[u.UserName] = &clone
	return nil
}
