// internal/app/features/chats/handler.go
package chats

import (
	"net/http"

	chatsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/chats"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/completion"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/ratelimit"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves chat sessions and the send endpoint.
type Handler struct {
	Chats      *chatsvc.Service
	Completion completion.Config
	Limiter    *ratelimit.Limiter // nil disables send throttling
	Log        *zap.Logger
}

func NewHandler(chats *chatsvc.Service, cfg completion.Config, limiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{
		Chats:      chats,
		Completion: cfg,
		Limiter:    limiter,
		Log:        logger,
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u == nil || u.Email == "" {
		respond.Error(w, h.Log, apperr.Unauthenticated(""))
		return models.Actor{}, false
	}
	return u.Actor(), true
}

// actorKey keys the send limiter on the signed-in email.
func actorKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		return u.Email
	}
	return ""
}
