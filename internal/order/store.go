package order

import "context"

// Store is the durable order store. Create must enforce uniqueness on the
// payment session id: a second create for the same session fails with
// ErrDuplicateSession instead of producing a duplicate order.
type Store interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) error
}
