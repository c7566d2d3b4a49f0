// internal/app/features/groups/routes.go
package groups

import (
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /api/groups.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)

		// Invite lifecycle (static paths before /{id})
		pr.Post("/invite", h.HandleIssueInvite)
		pr.Post("/join", h.HandleJoin)
		pr.Post("/requests", h.HandleProcessRequest)

		pr.Get("/{id}", h.ServeGroup)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/archive", h.HandleArchive)
		pr.Get("/{id}/audit", h.ServeAudit)

		pr.Delete("/{id}/members", h.HandleRemoveMember)
		pr.Patch("/{id}/roles", h.HandleUpdateRole)

		pr.Post("/{id}/memory", h.HandleAddMemory)
		pr.Delete("/{id}/memory/{key}", h.HandleRemoveMemory)

		pr.Get("/{id}/invites", h.ServeInvites)
		pr.Patch("/{id}/invites", h.HandleManageInvite)
		pr.Post("/{id}/requests", h.HandleProcessRequest)
	})

	return r
}

// InviteRoutes serves /api/invites, the invite landing-page preview.
func InviteRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Get("/{token}", h.ServePreview)
	return r
}
