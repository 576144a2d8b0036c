package cart

import (
	"context"
	"sync"
)

// Repository is the single source of truth for a session's cart. Every
// mutation writes the whole cart back; last writer wins across concurrent
// sessions holding the same key.
type Repository interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Clear(ctx context.Context, sessionID string) error
}

// MemoryRepository is an in-memory Repository for tests and development.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]Cart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string]Cart)}
}

func (m *MemoryRepository) Get(ctx context.Context, sessionID string) (*Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.carts[sessionID]
	if !ok {
		return &Cart{}, nil
	}
	c := Cart{Items: make([]Item, len(stored.Items))}
	copy(c.Items, stored.Items)
	return &c, nil
}

func (m *MemoryRepository) Save(ctx context.Context, sessionID string, c *Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := Cart{Items: make([]Item, len(c.Items))}
	copy(stored.Items, c.Items)
	m.carts[sessionID] = stored
	return nil
}

func (m *MemoryRepository) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.carts, sessionID)
	return nil
}
