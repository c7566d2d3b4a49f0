// internal/app/features/contact/routes.go
package contact

import (
	"net/http"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes serves /api/contact. The form is public; limiter may be nil.
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	submit := http.Handler(http.HandlerFunc(h.HandleSubmit))
	if limiter != nil {
		submit = limiter.Middleware(nil, "Too many messages. Please try again later.")(submit)
	}
	r.Method(http.MethodPost, "/", submit)
	return r
}
