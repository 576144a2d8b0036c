package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/scaffold-shop/internal/order"
)

// AdminHandlers serves the order management console.
type AdminHandlers struct {
	orders *order.Service
	logger *zap.Logger
}

func NewAdminHandlers(orders *order.Service, logger *zap.Logger) *AdminHandlers {
	return &AdminHandlers{orders: orders, logger: logger}
}

// ListOrders returns all orders, optionally filtered by a search term
// (order id or customer email substring) and a status.
func (h *AdminHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	status := order.Status(r.URL.Query().Get("status"))

	if status != "" && status != "all" && !order.ValidStatus(status) {
		respondJSONError(w, "invalid status filter", http.StatusBadRequest)
		return
	}

	orders, err := h.orders.ListAll(r.Context(), search, status)
	if err != nil {
		h.logger.Error("list all orders", zap.Error(err))
		respondJSONError(w, "failed to load orders", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"count":  len(orders),
	})
}

// UpdateOrderStatus moves an order to a new status, enforcing the
// transition rules.
func (h *AdminHandlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrderID == "" {
		respondJSONError(w, "order id is required", http.StatusBadRequest)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), req.OrderID, order.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidStatus):
			respondJSONError(w, "invalid status", http.StatusBadRequest)
		case errors.Is(err, order.ErrInvalidTransition):
			respondJSONError(w, "status transition not allowed", http.StatusConflict)
		case errors.Is(err, order.ErrOrderNotFound):
			respondJSONError(w, "order not found", http.StatusNotFound)
		default:
			h.logger.Error("update order status",
				zap.String("order_id", req.OrderID),
				zap.String("status", req.Status),
				zap.Error(err))
			respondJSONError(w, "failed to update order", http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, http.StatusOK, o)
}
