// internal/app/features/chat/routes.go
package chat

import (
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter for the chat endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/{projectID}/messages", h.Post)
	r.Get("/{projectID}/messages", h.History)

	return r
}
