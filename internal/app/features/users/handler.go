// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/timeouts"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Searcher is the directory lookup behind the search endpoint.
type Searcher interface {
	Search(ctx context.Context, q string) ([]models.Profile, error)
}

type Handler struct {
	Dir Searcher
	Log *zap.Logger
}

func NewHandler(dir Searcher, logger *zap.Logger) *Handler {
	return &Handler{Dir: dir, Log: logger}
}

// Routes serves /api/users.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Get("/search", h.ServeSearch)
	return r
}

// ServeSearch matches ?q= against names and emails. Short queries return [].
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user search")
	defer cancel()

	out, err := h.Dir.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		h.Log.Error("user search failed", zap.Error(err))
		respond.Error(w, h.Log, err)
		return
	}
	if out == nil {
		out = []models.Profile{}
	}
	respond.JSON(w, http.StatusOK, out)
}
