package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/example/scaffold-shop/internal/api/middleware"
	"github.com/example/scaffold-shop/internal/auth"
)

// NewRouter wires all HTTP routes. Storefront routes are anonymous (cart
// session cookie), order history requires a login, the admin console
// requires the admin role.
func NewRouter(
	handlers *Handlers,
	authHandlers *AuthHandlers,
	adminHandlers *AdminHandlers,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.OptionalAuth(jwtService))

	limiter := middleware.NewRateLimiter()
	r.Use(limiter.Limit)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Catalog
	r.Get("/products", handlers.GetProducts)
	r.Get("/products/{id}", handlers.GetProduct)

	// Cart
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", handlers.GetCart)
		r.Post("/items", handlers.AddToCart)
		r.Delete("/items/{productID}", handlers.RemoveFromCart)
		r.Put("/items/{index}/weight", handlers.UpdateCartWeight)
		r.Put("/items/{index}/unit", handlers.UpdateCartUnit)
		r.Delete("/", handlers.ClearCart)
	})

	// Checkout
	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", handlers.GetCheckout)
		r.Post("/", handlers.SubmitCheckout)
		r.Post("/success", handlers.CheckoutSuccess)
	})

	// Auth
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandlers.Register)
		r.Post("/confirm", authHandlers.Confirm)
		r.Post("/login", authHandlers.Login)
		r.Post("/logout", authHandlers.Logout)
		r.Post("/refresh", authHandlers.Refresh)
		r.Post("/forgot", authHandlers.ForgotPassword)
		r.Post("/reset", authHandlers.ResetPassword)

		r.With(middleware.RequireAuth(jwtService)).Get("/me", authHandlers.Me)
	})

	// Orders (customer history)
	r.Route("/orders", func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService))
		r.Get("/", handlers.GetMyOrders)
		r.Get("/{orderID}", handlers.GetOrder)
	})

	// Admin console
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService))
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/orders", adminHandlers.ListOrders)
		r.Put("/orders/status", adminHandlers.UpdateOrderStatus)
	})

	return r
}
