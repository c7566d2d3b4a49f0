// internal/app/features/groups/groups.go
package groups

import (
	"net/http"

	groupsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/groups"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/limits"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type createRequest struct {
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Industry     string                `json:"industry"`
	Type         string                `json:"type"`
	InviteMethod string                `json:"inviteMethod"`
	Settings     *models.GroupSettings `json:"settings"`
}

type updateRequest struct {
	Name         *string               `json:"name"`
	Description  *string               `json:"description"`
	Industry     *string               `json:"industry"`
	Type         *string               `json:"type"`
	InviteMethod *string               `json:"inviteMethod"`
	Settings     *models.GroupSettings `json:"settings"`
}

type archiveRequest struct {
	Archived *bool `json:"archived"`
}

// ServeList returns the caller's active groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	groups, err := h.Groups.ListForUser(r.Context(), actor.Email)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	respond.JSON(w, http.StatusOK, groups)
}

// HandleCreate creates a group with the caller as its only admin.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	g, err := h.Groups.Create(r.Context(), actor, groupsvc.CreateInput{
		Name:         req.Name,
		Description:  req.Description,
		Industry:     req.Industry,
		Type:         req.Type,
		InviteMethod: req.InviteMethod,
		Settings:     req.Settings,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, g)
}

// ServeGroup returns one group to a member.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	g, err := h.Groups.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, g)
}

// HandleUpdate applies a partial settings update.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	g, err := h.Groups.UpdateSettings(r.Context(), actor, chi.URLParam(r, "id"), groupsvc.SettingsInput{
		Name:         req.Name,
		Description:  req.Description,
		Industry:     req.Industry,
		Type:         req.Type,
		InviteMethod: req.InviteMethod,
		Settings:     req.Settings,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "group": g})
}

// HandleDelete removes a group and every chat shared into it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if _, err := h.Groups.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Group and associated data deleted successfully"})
}

// HandleArchive archives or restores a group. A missing flag archives.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	archived := true
	if r.ContentLength != 0 {
		var req archiveRequest
		if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		if req.Archived != nil {
			archived = *req.Archived
		}
	}
	if err := h.Groups.SetArchived(r.Context(), actor, chi.URLParam(r, "id"), archived); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "archived": archived})
}

// ServeAudit returns the group's audit trail to an admin.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	entries, err := h.Groups.AuditLog(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	respond.JSON(w, http.StatusOK, entries)
}
