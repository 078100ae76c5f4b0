// internal/app/features/projects/routes.go
package projects

import (
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter for the project endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.Create)
	r.Get("/mine", h.ListMine)
	r.Get("/{projectID}", h.Get)
	r.Delete("/{projectID}", h.Delete)
	r.Get("/{projectID}/members", h.ListMembers)

	return r
}
