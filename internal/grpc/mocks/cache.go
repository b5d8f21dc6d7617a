package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockCacher is a function-based mock of the Cacher interface. Unset Get
// behaves as a cache miss.
type MockCacher struct {
	GetFunc   func(ctx context.Context, key string, dest any) error
	SetFunc   func(ctx context.Context, key string, value any, expiration time.Duration) error
	CloseFunc func() error
}

func (m *MockCacher) Get(ctx context.Context, key string, dest any) error {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key, dest)
	}
	return redis.Nil
}

func (m *MockCacher) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *MockCacher) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MemoryCacher stores JSON-encoded values in a map, mirroring how the redis
// cache serialises entries.
type MemoryCacher struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func NewMemoryCacher() *MemoryCacher {
	return &MemoryCacher{data: make(map[string][]byte)}
}

func (m *MemoryCacher) Get(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(b, dest)
}

func (m *MemoryCacher) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	m.sets++
	return nil
}

func (m *MemoryCacher) Close() error { return nil }

// Sets returns how many writes the cache has seen.
func (m *MemoryCacher) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// Keys returns the stored keys.
func (m *MemoryCacher) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
