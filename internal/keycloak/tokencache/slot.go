package tokencache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Slot holds at most one admin token. An empty string means no token.
type Slot interface {
	Load(ctx context.Context) (string, error)
	Store(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemorySlot keeps the token in process memory.
type MemorySlot struct {
	mu    sync.RWMutex
	token string
}

// NewMemorySlot returns an empty in-process slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (s *MemorySlot) Load(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemorySlot) Store(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemorySlot) Clear(_ context.Context) error {
	return s.Store(context.Background(), "")
}

// DefaultRedisKey is where replicas share the admin token.
const DefaultRedisKey = "paralelogram:keycloak:admin-token"

// RedisSlot shares the token between replicas. Entries never expire; the
// cache replaces them when the provider stops accepting them.
type RedisSlot struct {
	client redis.Cmdable
	key    string
}

// NewRedisSlot stores the token under key, or DefaultRedisKey when key is empty.
func NewRedisSlot(client redis.Cmdable, key string) *RedisSlot {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSlot{client: client, key: key}
}

func (s *RedisSlot) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load admin token: %w", err)
	}
	return token, nil
}

func (s *RedisSlot) Store(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("store admin token: %w", err)
	}
	return nil
}

func (s *RedisSlot) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear admin token: %w", err)
	}
	return nil
}
