package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/scaffold-shop/internal/api/middleware"
	"github.com/example/scaffold-shop/internal/auth"
	"github.com/example/scaffold-shop/internal/cart"
	"github.com/example/scaffold-shop/internal/catalog"
	"github.com/example/scaffold-shop/internal/checkout"
	"github.com/example/scaffold-shop/internal/order"
)

const cartSessionCookie = "cart_session"

type Handlers struct {
	catalog   *catalog.Catalog
	carts     *cart.Service
	checkouts *checkout.Service
	orders    *order.Service
	logger    *zap.Logger
}

func NewHandlers(cat *catalog.Catalog, carts *cart.Service, checkouts *checkout.Service, orders *order.Service, logger *zap.Logger) *Handlers {
	return &Handlers{
		catalog:   cat,
		carts:     carts,
		checkouts: checkouts,
		orders:    orders,
		logger:    logger,
	}
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	if category := r.URL.Query().Get("category"); category != "" {
		respondJSON(w, http.StatusOK, h.catalog.ByCategory(category))
		return
	}
	respondJSON(w, http.StatusOK, h.catalog.List())
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondJSONError(w, "invalid product id", http.StatusBadRequest)
		return
	}

	product, err := h.catalog.GetByID(id)
	if err != nil {
		respondJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	c, err := h.carts.Get(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("get cart", zap.Error(err))
		respondJSONError(w, "failed to load cart", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	var req struct {
		ProductID int     `json:"productId"`
		Weight    float64 `json:"weight"`
		Unit      string  `json:"unit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.carts.AddItem(r.Context(), sessionID, req.ProductID, req.Weight, catalog.Unit(req.Unit))
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		respondJSONError(w, "invalid product id", http.StatusBadRequest)
		return
	}

	c, err := h.carts.RemoveItem(r.Context(), sessionID, productID)
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	if err := h.carts.Clear(r.Context(), sessionID); err != nil {
		h.logger.Error("clear cart", zap.Error(err))
		respondJSONError(w, "failed to clear cart", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, cart.Cart{Items: []cart.Item{}})
}

func (h *Handlers) UpdateCartWeight(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondJSONError(w, "invalid item index", http.StatusBadRequest)
		return
	}

	var req struct {
		Weight float64 `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.carts.UpdateWeight(r.Context(), sessionID, index, req.Weight)
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) UpdateCartUnit(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondJSONError(w, "invalid item index", http.StatusBadRequest)
		return
	}

	var req struct {
		Unit string `json:"unit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.carts.UpdateUnit(r.Context(), sessionID, index, catalog.Unit(req.Unit))
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Checkout Handlers

func (h *Handlers) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	var data checkout.Data
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.checkouts.Submit(r.Context(), sessionID, data)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrValidation):
			respondJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, checkout.ErrEmptyCart):
			respondJSONError(w, "cart is empty", http.StatusBadRequest)
		default:
			h.logger.Error("submit checkout", zap.Error(err))
			respondJSONError(w, "failed to start payment", http.StatusBadGateway)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"sessionId": session.ID,
		"url":       session.URL,
	})
}

func (h *Handlers) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	data, err := h.checkouts.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, checkout.ErrNotFound) {
			respondJSONError(w, "no checkout in progress", http.StatusNotFound)
			return
		}
		h.logger.Error("get checkout", zap.Error(err))
		respondJSONError(w, "failed to load checkout", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// CheckoutSuccess reconciles a returned payment session into a persisted order.
// Replays of the same session id return the already-created order.
func (h *Handlers) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		// Hosted checkout redirects back with the id in the query string.
		req.SessionID = r.URL.Query().Get("session_id")
	}
	if req.SessionID == "" {
		respondJSONError(w, "missing session id", http.StatusBadRequest)
		return
	}

	o, err := h.orders.Reconcile(r.Context(), req.SessionID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrSessionLookup):
			respondJSONError(w, "failed to verify payment", http.StatusBadGateway)
		case errors.Is(err, order.ErrPaymentIncomplete):
			respondJSONError(w, "payment not completed", http.StatusPaymentRequired)
		case errors.Is(err, order.ErrMetadataCorrupt):
			h.logger.Error("reconcile order", zap.String("session_id", req.SessionID), zap.Error(err))
			respondJSONError(w, "order details unavailable", http.StatusInternalServerError)
		default:
			h.logger.Error("reconcile order", zap.String("session_id", req.SessionID), zap.Error(err))
			respondJSONError(w, "failed to create order", http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orderId": o.OrderID,
		"order":   o,
	})
}

// Order Handlers

func (h *Handlers) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r.Context())
	if email == "" {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orders, err := h.orders.ListByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("list orders", zap.Error(err))
		respondJSONError(w, "failed to load orders", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	o, err := h.orders.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondJSONError(w, "order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get order", zap.String("order_id", orderID), zap.Error(err))
		respondJSONError(w, "failed to load order", http.StatusInternalServerError)
		return
	}

	// Customers see only their own orders. Admins see all.
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok || (claims.Email != o.CustomerEmail && claims.Role != auth.RoleAdmin) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

// Helpers

func (h *Handlers) respondCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		respondJSONError(w, "product not found", http.StatusNotFound)
	case errors.Is(err, catalog.ErrInvalidUnit):
		respondJSONError(w, "invalid unit", http.StatusBadRequest)
	case errors.Is(err, cart.ErrInvalidWeight):
		respondJSONError(w, "invalid weight", http.StatusBadRequest)
	case errors.Is(err, cart.ErrItemNotFound), errors.Is(err, cart.ErrIndexOutOfRange):
		respondJSONError(w, "item not found", http.StatusNotFound)
	default:
		h.logger.Error("cart operation", zap.Error(err))
		respondJSONError(w, "cart operation failed", http.StatusInternalServerError)
	}
}

// cartSession returns the anonymous cart session id, minting a cookie on
// first contact.
func (h *Handlers) cartSession(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(cartSessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sessionID := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     cartSessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   14 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
