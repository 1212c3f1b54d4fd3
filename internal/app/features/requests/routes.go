// internal/app/features/requests/routes.go
package requests

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /requests.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	return r
}
