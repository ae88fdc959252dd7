package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterDeps holds the handlers and per-route middleware for NewRouter.
type RouterDeps struct {
	Translate *TranslateHandler
	Health    *HealthHandler
	// Limit wraps the translation routes. Nil means unlimited.
	Limit func(http.Handler) http.Handler
}

// NewRouter wires all routes.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/live", d.Health.Live)
	r.Get("/ready", d.Health.Ready)
	r.Get("/health", d.Health.Health)

	r.Route("/api", func(r chi.Router) {
		if d.Limit != nil {
			r.Use(d.Limit)
		}
		r.Post("/process", d.Translate.Process)
		r.Post("/process/stream", d.Translate.Stream)
		r.Get("/process/stream", d.Translate.Stream)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
