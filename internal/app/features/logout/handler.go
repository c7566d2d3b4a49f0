// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// HandleLogout handles POST /auth/logout. Signing out without a session
// still succeeds and still expires the cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		h.Log.Info("user signed out", zap.String("email", u.Email))
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		// The client still gets a success; an unsaved session is already unusable.
		h.Log.Error("logout: save session", zap.Error(err))
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
