// internal/app/features/applications/routes.go
package applications

import (
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter for the application endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.Apply)
	r.Get("/mine", h.ListMine)
	r.Get("/project/{projectID}", h.ListByProject)
	r.Post("/{applicationID}/accept", h.Accept)
	r.Post("/{applicationID}/reject", h.Reject)

	return r
}
