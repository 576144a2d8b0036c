package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/scaffold-shop/internal/payment"
	"go.uber.org/zap"
)

// StateClearer clears a session's client-side state (cart, checkout data)
// after a successful reconciliation.
type StateClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// Service owns the cart-to-order reconciliation flow and order queries.
type Service struct {
	payments  payment.Client
	store     Store
	publisher Publisher
	clearers  []StateClearer
	logger    *zap.Logger
}

func NewService(payments payment.Client, store Store, publisher Publisher, logger *zap.Logger, clearers ...StateClearer) *Service {
	return &Service{
		payments:  payments,
		store:     store,
		publisher: publisher,
		clearers:  clearers,
		logger:    logger,
	}
}

// Reconcile converts a completed payment session into a durable order.
//
// The session metadata snapshot is the authoritative item list: the total is
// recomputed from it and client-supplied amounts are never trusted. The
// payment session id acts as the idempotency key, so re-running
// reconciliation for the same session returns the already-created order.
// Client session state is cleared only after the order is persisted; on a
// store failure it stays intact so the user can retry.
func (s *Service) Reconcile(ctx context.Context, checkoutSessionID, clientSessionID string) (*Order, error) {
	if checkoutSessionID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrSessionLookup)
	}

	sess, err := s.payments.GetSession(ctx, checkoutSessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionLookup, err)
	}

	// An order must never be created for an unpaid session.
	if sess.PaymentStatus != payment.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: payment_status=%q", ErrPaymentIncomplete, sess.PaymentStatus)
	}

	meta, err := payment.ParseMetadata(sess.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataCorrupt, err)
	}

	items := make([]Item, len(meta.Items))
	for i, li := range meta.Items {
		items[i] = Item{
			ProductID:    li.ProductID,
			Name:         li.Name,
			Weight:       li.Weight,
			Unit:         li.Unit,
			PricePerUnit: li.PricePerUnit,
		}
	}

	now := time.Now()
	o := &Order{
		OrderID:       NewOrderID(),
		CustomerEmail: meta.CustomerEmail,
		Items:         items,
		TotalAmount:   Total(items),
		Status:        StatusPaid,
		ShippingAddress: Address{
			Street:  meta.ShippingAddress.Street,
			City:    meta.ShippingAddress.City,
			State:   meta.ShippingAddress.State,
			Zip:     meta.ShippingAddress.Zip,
			Country: meta.ShippingAddress.Country,
		},
		PaymentInfo: PaymentInfo{
			SessionID:     sess.ID,
			PaymentStatus: sess.PaymentStatus,
			PaymentMethod: "card",
			PaidAt:        now,
		},
		CreatedAt: now,
	}

	if err := s.store.Create(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateSession) {
			existing, lookupErr := s.store.GetBySessionID(ctx, sess.ID)
			if lookupErr != nil {
				return nil, fmt.Errorf("duplicate session but lookup failed: %w", lookupErr)
			}
			s.logger.Info("reconciliation replay, returning existing order",
				zap.String("order_id", existing.OrderID),
				zap.String("session_id", sess.ID))
			return existing, nil
		}
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.clearSessionState(ctx, clientSessionID)
	s.publishCreated(ctx, o)

	s.logger.Info("order created",
		zap.String("order_id", o.OrderID),
		zap.String("session_id", sess.ID),
		zap.Float64("total", o.TotalAmount))
	return o, nil
}

func (s *Service) clearSessionState(ctx context.Context, clientSessionID string) {
	if clientSessionID == "" {
		return
	}
	for _, clearer := range s.clearers {
		if err := clearer.Clear(ctx, clientSessionID); err != nil {
			s.logger.Warn("failed to clear session state",
				zap.String("session", clientSessionID), zap.Error(err))
		}
	}
}

func (s *Service) publishCreated(ctx context.Context, o *Order) {
	if s.publisher == nil {
		return
	}
	evt, err := newEvent(EventOrderCreated, OrderCreated{
		OrderID:       o.OrderID,
		CustomerEmail: o.CustomerEmail,
		TotalAmount:   o.TotalAmount,
		Items:         o.Items,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, o.OrderID, evt)
	}
	if err != nil {
		// Notification is best-effort; the order is already durable.
		s.logger.Warn("failed to publish OrderCreated", zap.String("order_id", o.OrderID), zap.Error(err))
	}
}

// Get returns a single order by id.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.store.GetByID(ctx, orderID)
}

// ListByEmail returns the customer's orders.
func (s *Service) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	return s.store.ListByEmail(ctx, email)
}

// ListAll returns every order, optionally filtered by search term and status.
func (s *Service) ListAll(ctx context.Context, search string, status Status) ([]Order, error) {
	orders, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(orders, search, status), nil
}

// UpdateStatus moves an order to a new status after validating the value and
// the transition, then publishes OrderStatusChanged.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}

	if err := s.store.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	old := o.Status
	o.Status = status

	if s.publisher != nil {
		evt, err := newEvent(EventOrderStatusChanged, OrderStatusChanged{
			OrderID:   orderID,
			OldStatus: old,
			NewStatus: status,
		})
		if err == nil {
			err = s.publisher.Publish(ctx, orderID, evt)
		}
		if err != nil {
			s.logger.Warn("failed to publish OrderStatusChanged", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	return o, nil
}
