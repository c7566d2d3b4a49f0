// internal/app/features/contact/handler.go
package contact

import (
	"context"
	"net/http"
	"strings"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/htmlsanitize"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/limits"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/normalize"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.uber.org/zap"
)

// Store persists contact submissions.
type Store interface {
	Create(ctx context.Context, c models.Contact) (models.Contact, error)
}

type Handler struct {
	Store Store
	Log   *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{
		Store: store,
		Log:   logger,
	}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// HandleSubmit stores one contact form submission.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	name := htmlsanitize.StripTags(strings.TrimSpace(req.Name))
	email := normalize.Email(req.Email)
	message := htmlsanitize.StripTags(strings.TrimSpace(req.Message))
	if name == "" || email == "" || message == "" {
		respond.Error(w, h.Log, apperr.Invalid("missing_fields", "Missing required fields"))
		return
	}
	if !normalize.IsEmail(email) {
		respond.Error(w, h.Log, apperr.Invalid("invalid_email", "Invalid email address"))
		return
	}

	c, err := h.Store.Create(r.Context(), models.Contact{Name: name, Email: email, Message: message})
	if err != nil {
		h.Log.Error("store contact failed", zap.String("email", email), zap.Error(err))
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Message sent successfully",
		"data":    c,
	})
}
