// internal/app/features/notifications/handler.go
package notifications

import (
	"net/http"
	"strconv"
	"strings"

	notifysvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/notifications"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/limits"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UnreadHeader carries the unread count alongside the list.
const UnreadHeader = "X-Unread-Count"

type Handler struct {
	Notify *notifysvc.Service
	Log    *zap.Logger
}

func NewHandler(notify *notifysvc.Service, logger *zap.Logger) *Handler {
	return &Handler{Notify: notify, Log: logger}
}

// Routes serves /api/notifications.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Patch("/", h.HandleAction)
	})
	return r
}

type actionRequest struct {
	NotificationID string `json:"notificationId"`
	Action         string `json:"action"`
}

// ServeList returns the caller's notifications, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, apperr.Unauthenticated(""))
		return
	}
	items, unread, err := h.Notify.List(r.Context(), u.Email)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if items == nil {
		items = []notifysvc.Item{}
	}
	w.Header().Set(UnreadHeader, strconv.FormatInt(unread, 10))
	respond.JSON(w, http.StatusOK, items)
}

// HandleAction marks read or deletes one or all of the caller's notifications.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, h.Log, apperr.Unauthenticated(""))
		return
	}
	var req actionRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	action := notifysvc.Action(strings.ToLower(strings.TrimSpace(req.Action)))
	if err := h.Notify.Apply(r.Context(), u.Email, action, strings.TrimSpace(req.NotificationID)); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
