// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter for the task endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.Create)
	r.Put("/{taskID}", h.Update)
	r.Get("/project/{projectID}", h.ListByProject)

	return r
}
