// internal/app/features/login/routes.go
package login

import (
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /auth. Register and login are public.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/token", h.HandleToken)
		pr.Get("/me", h.ServeMe)
	})
	return r
}
