package checkout

import (
	"context"
	"fmt"

	"github.com/example/scaffold-shop/internal/cart"
	"github.com/example/scaffold-shop/internal/payment"
	"go.uber.org/zap"
)

// Service captures checkout details and opens the hosted payment session.
// This is the payment-gated flow: no order exists until the payment provider
// confirms the session as paid.
type Service struct {
	repo     Repository
	carts    cart.Repository
	payments payment.Client
	logger   *zap.Logger
}

func NewService(repo Repository, carts cart.Repository, payments payment.Client, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		carts:    carts,
		payments: payments,
		logger:   logger,
	}
}

// Submit validates the capture, stores it for the session, and creates a
// hosted checkout session from the current cart. The stored capture and cart
// survive until reconciliation clears them.
func (s *Service) Submit(ctx context.Context, sessionID string, data Data) (*payment.Session, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.repo.Save(ctx, sessionID, &data); err != nil {
		return nil, fmt.Errorf("save checkout data: %w", err)
	}

	sess, err := s.payments.CreateSession(ctx, payment.CreateSessionRequest{
		Items:           c.Items,
		CustomerEmail:   data.Email,
		ShippingAddress: data.ShippingAddress,
	})
	if err != nil {
		// No retry here: session creation is not idempotent and a blind
		// retry could open a second session.
		return nil, fmt.Errorf("create payment session: %w", err)
	}

	s.logger.Info("payment session created",
		zap.String("session_id", sess.ID),
		zap.String("customer", data.Email),
		zap.Int("items", len(c.Items)))
	return sess, nil
}

// Get returns the stored capture for the session.
func (s *Service) Get(ctx context.Context, sessionID string) (*Data, error) {
	return s.repo.Get(ctx, sessionID)
}
