// internal/app/features/webhook/routes.go
package webhook

import (
	"github.com/dalemusser/rosterhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter for the webhook endpoints, mounted under
// /webhook. POSTs go through the per-client limiter when one is set.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/sheet-updated", h.ServeSheetUpdated)
	r.Get("/events", h.ServeEvents)
	r.Get("/ws", h.ServeWS)
	r.Get("/test", h.ServeTest)

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(h.Limiter, h.tooManyRequests))
		r.Post("/sheet-updated", h.HandleSheetUpdated)
		r.Post("/test", h.HandleTest)
	})
	return r
}
