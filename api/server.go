/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:    Unique ID per request for tracing
  2. accessLog:    zerolog request logging
  3. Recoverer:    Panic recovery (500 instead of crash)
  4. CORS:         Cross-origin requests for the frontend
  5. withLocale:   Accept-Language -> message catalog
  6. authenticate: Bearer token -> acting user (never rejects by itself)

ROUTE GROUPS:
  /health, /metrics     Health check and Prometheus scrape
  /api/login            PIN login, returns a bearer token
  /api/holidays         Holiday calendar and company closure days
  /api/working-days     Working-day counter
  /api/users/*          User management and balances
  /api/requests/*       Leave request lifecycle
  /api/tasks/*          Task list
  /api/scenarios/*      Demo data (development only)

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Logging, locale and auth middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions holds the transport settings that are not part of Handler.
type RouterOptions struct {
	CORSOrigins []string
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(withLocale)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Post("/login", h.Login)

		// Calendar (public)
		r.Get("/holidays", h.ListHolidays)
		r.Get("/working-days", h.CountWorkingDays)

		// Everything below needs a logged-in user
		r.Group(func(r chi.Router) {
			r.Use(requireActor)

			r.Get("/me", h.Me)

			r.Post("/holidays", h.AddClosure)
			r.Delete("/holidays/{date}", h.RemoveClosure)

			// Users
			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
				r.Get("/{id}/balance", h.GetBalance)
			})

			// Leave requests
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", h.ListRequests)
				r.Post("/", h.CreateRequest)
				r.Get("/{id}", h.GetRequest)
				r.Put("/{id}", h.UpdateRequest)
				r.Put("/{id}/status", h.UpdateRequestStatus)
				r.Delete("/{id}", h.DeleteRequest)
			})

			// Tasks
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.ListTasks)
				r.Post("/", h.CreateTask)
				r.Put("/{id}/status", h.UpdateTaskStatus)
				r.Delete("/{id}", h.DeleteTask)
			})

			// Demo data (development only)
			r.Get("/scenarios", h.ListScenarios)
			r.Post("/scenarios/load", h.LoadScenario)
		})
	})

	return r
}
