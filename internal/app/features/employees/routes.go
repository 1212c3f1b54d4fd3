// internal/app/features/employees/routes.go
package employees

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the employee record endpoints, mounted
// under /employees.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Put("/", h.HandleUpdate)
	r.Delete("/", h.HandleDelete)

	r.Get("/all", h.ServeListAll)
	r.Put("/delete", h.HandleEnsureDeleted)

	r.Post("/add", h.HandleCreate)
	r.Put("/update", h.HandleUpdate)
	return r
}
