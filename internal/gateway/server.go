package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	if g.deps.MetricsHandler != nil {
		r.Handle("/metrics", g.deps.MetricsHandler)
	}

	// Config validation guarantees auth whenever the bind is not loopback.
	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth, g.deps.AuditLogger, g.deps.RateLimiter))
		}
		r.Get("/status", g.handleStatus())
		r.Route("/api", func(r chi.Router) {
			r.Get("/tools", g.handleListTools())
			r.Post("/tools/{name}", g.handleInvokeTool())
			r.Get("/proposals", g.handleListProposals())
		})
	})

	return r
}
