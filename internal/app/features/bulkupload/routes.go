// internal/app/features/bulkupload/routes.go
package bulkupload

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for bulk uploads, mounted under /employees/bulk.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleUpload)
	return r
}
