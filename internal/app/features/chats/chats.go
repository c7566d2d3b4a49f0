// internal/app/features/chats/chats.go
package chats

import (
	"net/http"

	chatsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/chats"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/limits"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type sendSettings struct {
	Persona    string `json:"persona"`
	Encryption *bool  `json:"encryption"`
}

type sendRequest struct {
	Message  string        `json:"message"`
	ChatID   string        `json:"chatId"`
	GroupID  string        `json:"groupId"`
	Image    string        `json:"image"`
	Settings *sendSettings `json:"settings"`
}

type replaceRequest struct {
	Messages []models.Message `json:"messages"`
}

type revertRequest struct {
	Index *int `json:"index"`
}

// HandleSend runs one user turn and returns the reply with the stored history.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req sendRequest
	if err := respond.Decode(w, r, limits.MaxChatBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	in := chatsvc.SendInput{
		ChatID:  req.ChatID,
		GroupID: req.GroupID,
		Message: req.Message,
		Image:   req.Image,
	}
	if req.Settings != nil {
		in.Persona = req.Settings.Persona
		in.Encryption = req.Settings.Encryption
	}

	res, err := h.Chats.Send(r.Context(), actor, in, h.Completion)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if res.Messages == nil {
		res.Messages = []models.Message{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"response": res.Response,
		"chatId":   res.ChatID,
		"title":    res.Title,
		"messages": res.Messages,
	})
}

// ServeChat returns one chat's history.
func (h *Handler) ServeChat(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	c, err := h.Chats.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	msgs := c.Messages
	if msgs == nil {
		msgs = []models.Message{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"messages": msgs,
		"chatId":   c.ID,
		"title":    c.Title,
		"groupId":  c.GroupID,
	})
}

// HandleReplace overwrites the history with the posted messages.
func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req replaceRequest
	if err := respond.Decode(w, r, limits.MaxReplaceBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	msgs, err := h.Chats.ReplaceMessages(r.Context(), actor, chi.URLParam(r, "id"), req.Messages)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":  "Chat updated successfully",
		"messages": msgs,
	})
}

// HandleRevert truncates the history before {index}.
func (h *Handler) HandleRevert(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req revertRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if req.Index == nil {
		respond.Error(w, h.Log, apperr.Invalid("missing_index", "Revert index is required"))
		return
	}
	msgs, err := h.Chats.Revert(r.Context(), actor, chi.URLParam(r, "id"), *req.Index)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":  "Chat reverted successfully",
		"messages": msgs,
	})
}

// HandleDelete removes a chat.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.Chats.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Chat deleted successfully"})
}

// ServeList lists personal chats, or a group's chats with ?groupId=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	list, err := h.Chats.List(r.Context(), actor, r.URL.Query().Get("groupId"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if list == nil {
		list = []models.ChatSummary{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"chats": list})
}
