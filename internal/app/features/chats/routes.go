// internal/app/features/chats/routes.go
package chats

import (
	"net/http"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /api/chat.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		send := http.Handler(http.HandlerFunc(h.HandleSend))
		if h.Limiter != nil {
			send = h.Limiter.Middleware(actorKey, "Too many messages. Please slow down.")(send)
		}
		pr.Method(http.MethodPost, "/", send)

		pr.Get("/{id}", h.ServeChat)
		pr.Patch("/{id}", h.HandleReplace)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/revert", h.HandleRevert)
	})

	return r
}

// ListRoutes serves /api/chats.
func ListRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Get("/", h.ServeList)
	return r
}
