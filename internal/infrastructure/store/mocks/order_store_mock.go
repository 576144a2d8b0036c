package mocks

import (
	"context"
	"sync"

	"github.com/example/scaffold-shop/internal/order"
)

// MockOrderStore is an in-memory order.Store for testing. It enforces the
// same payment-session uniqueness the real backends do.
type MockOrderStore struct {
	mu        sync.RWMutex
	orders    map[string]order.Order // keyed by order id
	bySession map[string]string      // session id -> order id

	// For tracking calls and injecting failures in tests
	CreateCalls       []order.Order
	CreateErr         error
	UpdateStatusCalls []UpdateStatusCall
	UpdateStatusErr   error
	ListAllErr        error
}

// UpdateStatusCall records parameters passed to UpdateStatus
type UpdateStatusCall struct {
	OrderID string
	Status  order.Status
}

// NewMockOrderStore creates a new MockOrderStore
func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		orders:    make(map[string]order.Order),
		bySession: make(map[string]string),
	}
}

func (m *MockOrderStore) Create(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, *o)

	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.bySession[o.PaymentInfo.SessionID]; exists {
		return order.ErrDuplicateSession
	}

	m.orders[o.OrderID] = *o
	m.bySession[o.PaymentInfo.SessionID] = o.OrderID
	return nil
}

func (m *MockOrderStore) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[orderID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return &o, nil
}

func (m *MockOrderStore) GetBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bySession[sessionID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	o := m.orders[id]
	return &o, nil
}

func (m *MockOrderStore) ListByEmail(ctx context.Context, email string) ([]order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []order.Order
	for _, o := range m.orders {
		if o.CustomerEmail == email {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockOrderStore) ListAll(ctx context.Context) ([]order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListAllErr != nil {
		return nil, m.ListAllErr
	}

	out := make([]order.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *MockOrderStore) UpdateStatus(ctx context.Context, orderID string, status order.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateStatusCalls = append(m.UpdateStatusCalls, UpdateStatusCall{OrderID: orderID, Status: status})

	if m.UpdateStatusErr != nil {
		return m.UpdateStatusErr
	}

	o, ok := m.orders[orderID]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = status
	m.orders[orderID] = o
	return nil
}

// Count returns the number of stored orders.
func (m *MockOrderStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}
