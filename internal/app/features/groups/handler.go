// internal/app/features/groups/handler.go
package groups

import (
	"net/http"

	groupsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/groups"
	invitesvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/invites"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature. The
// group registry and the invite lifecycle share one router because invite
// and join-request routes live under /api/groups.
type Handler struct {
	Groups  *groupsvc.Service
	Invites *invitesvc.Service
	Log     *zap.Logger
}

// NewHandler constructs a groups Handler. It is called from bootstrap once
// the services are built.
func NewHandler(groups *groupsvc.Service, invites *invitesvc.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Groups:  groups,
		Invites: invites,
		Log:     logger,
	}
}

// actor returns the signed-in caller, writing a 401 when there is none.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u == nil || u.Email == "" {
		respond.Error(w, h.Log, apperr.Unauthenticated(""))
		return models.Actor{}, false
	}
	return u.Actor(), true
}
