package router

import (
	"log"
	"net/http"

	"github.com/brasa-pos/api/internal/config"
	"github.com/brasa-pos/api/internal/enum"
	"github.com/brasa-pos/api/internal/handler"
	mw "github.com/brasa-pos/api/internal/middleware"
	"github.com/brasa-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, store handler.Dispatcher, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // SvelteKit dev server
			"https://pos.brasa.pe",  // Production POS terminals
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(store, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/areas/{area}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Orders and nested payments
		orderHandler := handler.NewOrderHandler(store)
		paymentHandler := handler.NewPaymentHandler(store)
		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterRoutes(r)
			r.Route("/{id}/payment", paymentHandler.RegisterRoutes)
		})

		// Products (stock corrections are owner-only)
		productHandler := handler.NewProductHandler(store)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.With(mw.RequireRole(enum.UserRoleOwner)).Post("/{id}/stock", productHandler.AdjustStock)
		})

		// Cash sessions (cashier or owner)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleCashier, enum.UserRoleOwner))
			tillHandler := handler.NewTillHandler(store)
			r.Route("/cash-sessions", tillHandler.RegisterRoutes)
		})

		// Loyalty (program activation is owner-only)
		loyaltyHandler := handler.NewLoyaltyHandler(store)
		r.Route("/loyalty", func(r chi.Router) {
			r.Get("/programs", loyaltyHandler.ListPrograms)
			r.With(mw.RequireRole(enum.UserRoleOwner)).Post("/programs/{id}/activate", loyaltyHandler.ActivateProgram)
			r.Post("/redemptions", loyaltyHandler.Redeem)
			r.Get("/customers/{phone}", loyaltyHandler.GetCustomer)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
