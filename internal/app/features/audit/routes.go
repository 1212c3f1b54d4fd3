// internal/app/features/audit/routes.go
package audit

import "github.com/go-chi/chi/v5"

// Routes mounts the audit trail under /audit.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(h.requireToken)
	r.Get("/", h.ServeList)
	return r
}
