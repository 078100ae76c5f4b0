// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for sign-in and registration.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.SignIn)
	r.Post("/register", h.Register)
	return r
}
