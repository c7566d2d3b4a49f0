// internal/app/features/groups/members.go
package groups

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/limits"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type memberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type memoryRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// HandleRemoveMember removes {userId} from the group. Members may remove
// themselves; removing anyone else takes an admin.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req memberRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	members, err := h.Groups.RemoveMember(r.Context(), actor, chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if members == nil {
		members = []models.Membership{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Member removed successfully",
		"members": members,
	})
}

// HandleUpdateRole changes {userId}'s role.
func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req memberRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Groups.UpdateMemberRole(r.Context(), actor, chi.URLParam(r, "id"), req.UserID, req.Role); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Role updated to %s", strings.ToLower(strings.TrimSpace(req.Role))),
	})
}

// HandleAddMemory sets one fact in the group's shared memory.
func (h *Handler) HandleAddMemory(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req memoryRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	fact, err := h.Groups.AddMemory(r.Context(), actor, chi.URLParam(r, "id"), req.Key, req.Value)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "fact": fact})
}

// HandleRemoveMemory drops the fact stored under {key}.
func (h *Handler) HandleRemoveMemory(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.Groups.RemoveMemory(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "key")); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
