// internal/app/features/groups/invites.go
package groups

import (
	"net/http"
	"strings"

	invitesvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/invites"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/limits"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type issueRequest struct {
	GroupID         string   `json:"groupId"`
	Method          string   `json:"method"`
	Recipients      []string `json:"recipients"`
	Role            string   `json:"role"`
	ExpiresDays     int      `json:"expiresDays"`
	PersonalMessage string   `json:"personalMessage"`
}

type joinRequest struct {
	Token string `json:"token"`
}

type processRequest struct {
	ID      string `json:"id"`
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
	Action  string `json:"action"`
}

type manageRequest struct {
	Token  string `json:"token"`
	Action string `json:"action"`
}

// HandleIssueInvite creates a batch of link, email or username invites.
func (h *Handler) HandleIssueInvite(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req issueRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	res, err := h.Invites.Issue(r.Context(), actor, invitesvc.IssueInput{
		GroupID:         req.GroupID,
		Method:          req.Method,
		Recipients:      req.Recipients,
		Role:            req.Role,
		ExpiresDays:     req.ExpiresDays,
		PersonalMessage: req.PersonalMessage,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": res.Results,
		"message": res.Message,
	})
}

// HandleJoin redeems an invite token for the caller.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	res, err := h.Invites.Redeem(r.Context(), actor, req.Token)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	body := map[string]any{
		"message":   res.Message,
		"groupId":   res.GroupID,
		"groupName": res.GroupName,
	}
	switch res.Outcome {
	case invitesvc.OutcomeJoined:
		body["joined"] = true
	case invitesvc.OutcomePending:
		body["pending"] = true
	case invitesvc.OutcomeAlreadyMember:
		body["alreadyMember"] = true
	}
	respond.JSON(w, http.StatusOK, body)
}

// HandleProcessRequest approves or rejects a join request. The group comes
// from the path when routed under /{id}, otherwise from the body.
func (h *Handler) HandleProcessRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req processRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		groupID = req.GroupID
	}
	if groupID == "" {
		groupID = req.ID
	}
	if strings.TrimSpace(groupID) == "" {
		respond.Error(w, h.Log, apperr.Invalid("missing_group", "Group ID is required"))
		return
	}

	msg, err := h.Invites.ProcessRequest(r.Context(), actor, groupID, req.UserID,
		invitesvc.RequestAction(strings.ToLower(strings.TrimSpace(req.Action))))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}

// ServeInvites lists the group's invites to an admin.
func (h *Handler) ServeInvites(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	invites, err := h.Invites.List(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, invites)
}

// HandleManageInvite cancels or resends one invite.
func (h *Handler) HandleManageInvite(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req manageRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		respond.Error(w, h.Log, apperr.Invalid("missing_token", "Invite token is required"))
		return
	}
	invites, err := h.Invites.CancelOrResend(r.Context(), actor, chi.URLParam(r, "id"), req.Token,
		invitesvc.ManageAction(strings.ToLower(strings.TrimSpace(req.Action))))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if invites == nil {
		invites = []models.Invite{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "invites": invites})
}

// ServePreview describes the invite behind {token}.
func (h *Handler) ServePreview(w http.ResponseWriter, r *http.Request) {
	p, err := h.Invites.Preview(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}
