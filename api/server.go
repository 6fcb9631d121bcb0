/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the POS frontend

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Cash drawer routes
		r.Route("/drawer", func(r chi.Router) {
			r.Post("/open", h.OpenDrawer)
			r.Get("/session", h.GetSession)
			r.Post("/movements", h.RecordMovement)
			r.Delete("/movements/{id}", h.DeleteMovement)
			r.Post("/close", h.CloseDrawer)
			r.Get("/reports", h.ListZReports)
			r.Post("/reports/{id}/print", h.ReprintZReport)
		})

		// Sales routes (collaborator surface)
		r.Route("/sales", func(r chi.Router) {
			r.Post("/", h.RecordSale)
			r.Get("/", h.ListSales)
		})

		// Period report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.GetSummary)
		})
	})

	return r
}
