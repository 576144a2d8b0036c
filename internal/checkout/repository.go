package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("no checkout data for session")

// Repository holds the transient checkout capture between form submission and
// payment completion.
type Repository interface {
	Get(ctx context.Context, sessionID string) (*Data, error)
	Save(ctx context.Context, sessionID string, d *Data) error
	Clear(ctx context.Context, sessionID string) error
}

const checkoutTTL = 24 * time.Hour

// RedisRepository persists checkout data in Redis under checkout:<session>.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func checkoutKey(sessionID string) string {
	return "checkout:" + sessionID
}

func (r *RedisRepository) Get(ctx context.Context, sessionID string) (*Data, error) {
	raw, err := r.client.Get(ctx, checkoutKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get checkout: %w", err)
	}

	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("unmarshal checkout data: %w", err)
	}
	return &d, nil
}

func (r *RedisRepository) Save(ctx context.Context, sessionID string, d *Data) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal checkout data: %w", err)
	}
	if err := r.client.Set(ctx, checkoutKey(sessionID), raw, checkoutTTL).Err(); err != nil {
		return fmt.Errorf("redis set checkout: %w", err)
	}
	return nil
}

func (r *RedisRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, checkoutKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del checkout: %w", err)
	}
	return nil
}

// MemoryRepository is an in-memory Repository for tests and development.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]Data
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string]Data)}
}

func (m *MemoryRepository) Get(ctx context.Context, sessionID string) (*Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.data[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *MemoryRepository) Save(ctx context.Context, sessionID string, d *Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[sessionID] = *d
	return nil
}

func (m *MemoryRepository) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, sessionID)
	return nil
}
