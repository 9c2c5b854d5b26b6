// Package http provides the operations HTTP surface: health probes and the
// recent domain events feed, with routing and server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orgplan/orgplan/internal/adapters/http/handlers"
)

// NewRouter creates an HTTP handler with all operations routes registered.
// Middleware is applied globally in the order given.
func NewRouter(
	healthHandler *handlers.HealthHandler,
	eventsHandler *handlers.EventsHandler,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewares...)

	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	r.Route("/ops", func(r chi.Router) {
		r.Get("/events", eventsHandler.Recent)
	})

	return r
}
