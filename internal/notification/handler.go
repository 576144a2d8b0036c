package notification

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/example/scaffold-shop/internal/order"
)

// Mailer sends customer-facing order mail.
type Mailer interface {
	SendOrderConfirmation(to, orderID string, total float64, items []order.Item) error
	SendStatusUpdate(to, orderID string, status order.Status) error
}

// StaffAlerter pushes new-order alerts to staff.
type StaffAlerter interface {
	NewOrderAlert(e order.OrderCreated) error
}

// Handler turns order events from the broker into customer email and staff
// alerts.
type Handler struct {
	mailer  Mailer
	alerter StaffAlerter
	orders  order.Store
	logger  *zap.Logger
}

// NewHandler creates a notification handler. alerter may be nil when no
// staff chat is configured.
func NewHandler(mailer Mailer, alerter StaffAlerter, orders order.Store, logger *zap.Logger) *Handler {
	return &Handler{
		mailer:  mailer,
		alerter: alerter,
		orders:  orders,
		logger:  logger,
	}
}

// HandleEvent processes a single event from the order events topic.
// Malformed payloads are logged and skipped rather than retried forever.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event order.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Error("unmarshal event", zap.ByteString("key", key), zap.Error(err))
		return nil
	}

	switch event.Type {
	case order.EventOrderCreated:
		return h.handleOrderCreated(event)
	case order.EventOrderStatusChanged:
		return h.handleStatusChanged(ctx, event)
	default:
		return nil
	}
}

func (h *Handler) handleOrderCreated(event order.Event) error {
	var e order.OrderCreated
	if err := json.Unmarshal(event.Data, &e); err != nil {
		h.logger.Error("unmarshal OrderCreated", zap.Error(err))
		return nil
	}

	if err := h.mailer.SendOrderConfirmation(e.CustomerEmail, e.OrderID, e.TotalAmount, e.Items); err != nil {
		h.logger.Error("send confirmation email",
			zap.String("order_id", e.OrderID),
			zap.String("to", e.CustomerEmail),
			zap.Error(err))
		return err
	}
	h.logger.Info("confirmation email sent",
		zap.String("order_id", e.OrderID),
		zap.String("to", e.CustomerEmail))

	if h.alerter != nil {
		if err := h.alerter.NewOrderAlert(e); err != nil {
			// Staff alert failures never block the pipeline.
			h.logger.Warn("staff alert", zap.String("order_id", e.OrderID), zap.Error(err))
		}
	}

	return nil
}

func (h *Handler) handleStatusChanged(ctx context.Context, event order.Event) error {
	var e order.OrderStatusChanged
	if err := json.Unmarshal(event.Data, &e); err != nil {
		h.logger.Error("unmarshal OrderStatusChanged", zap.Error(err))
		return nil
	}

	// The event carries only ids; look the order up for the customer email.
	o, err := h.orders.GetByID(ctx, e.OrderID)
	if err != nil {
		h.logger.Error("load order for status mail", zap.String("order_id", e.OrderID), zap.Error(err))
		return nil
	}

	if err := h.mailer.SendStatusUpdate(o.CustomerEmail, e.OrderID, e.NewStatus); err != nil {
		h.logger.Error("send status email",
			zap.String("order_id", e.OrderID),
			zap.String("to", o.CustomerEmail),
			zap.Error(err))
		return err
	}

	return nil
}
