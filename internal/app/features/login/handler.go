// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/users"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/authutil"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/limits"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/normalize"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/ratelimit"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/respond"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/timeouts"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Directory is the user persistence credentials sign-in needs.
type Directory interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	Upsert(ctx context.Context, email, name, image string) (models.User, error)
}

type Handler struct {
	SessionMgr *auth.SessionManager
	Users      Directory
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(sm *auth.SessionManager, dir Directory, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		SessionMgr: sm,
		Users:      dir,
		Limiter:    limiter,
		Log:        logger,
	}
}

var errBadCredentials = apperr.Unauthenticated("Invalid email or password")

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User models.Profile `json:"user"`
}

// HandleRegister handles POST /auth/register. The new account is signed in.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		respond.Error(w, h.Log, apperr.Invalid("missing_fields", "Email and password are required"))
		return
	}
	if !normalize.IsEmail(email) {
		respond.Error(w, h.Log, apperr.Invalid("invalid_email", "Invalid email address"))
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		msg := authutil.PasswordRules()
		if errors.Is(err, authutil.ErrPasswordCommon) {
			msg = "That password is too common. " + msg
		}
		respond.Error(w, h.Log, apperr.Invalid("weak_password", msg))
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("hash password failed", zap.Error(err))
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{Email: email, Name: req.Name, PasswordHash: hash})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.JSON(w, http.StatusConflict, map[string]string{
			"error": "An account with this email already exists",
			"code":  "email_taken",
		})
		return
	}
	if err != nil {
		h.Log.Error("create user failed", zap.String("email", email), zap.Error(err))
		respond.Error(w, h.Log, err)
		return
	}

	if !h.signIn(w, r, u) {
		return
	}
	h.Log.Info("user registered", zap.String("email", u.Email))
	respond.JSON(w, http.StatusCreated, userResponse{User: u.Profile()})
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := respond.Decode(w, r, limits.MaxJSONBody, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		respond.Error(w, h.Log, apperr.Invalid("missing_fields", "Email and password are required"))
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login rate limited",
				zap.String("email", email),
				zap.String("ip", ratelimit.ClientIP(r)))
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{"error": msg, "code": "rate_limited"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.Log.Info("login failed: unknown email", zap.String("email", email))
		respond.Error(w, h.Log, errBadCredentials)
		return
	case err != nil:
		h.Log.Error("load user failed", zap.String("email", email), zap.Error(err))
		respond.Error(w, h.Log, err)
		return
	}

	// Accounts created through Google have no password.
	if !authutil.CheckPassword(req.Password, u.PasswordHash) {
		h.Log.Info("login failed: bad password", zap.String("email", email))
		respond.Error(w, h.Log, errBadCredentials)
		return
	}

	// Refreshes last_login.
	if fresh, err := h.Users.Upsert(ctx, u.Email, u.Name, u.Image); err != nil {
		h.Log.Warn("record last login failed", zap.String("email", email), zap.Error(err))
	} else {
		u = fresh
	}

	if !h.signIn(w, r, u) {
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.Log.Info("user signed in", zap.String("email", u.Email), zap.String("provider", "credentials"))
	respond.JSON(w, http.StatusOK, userResponse{User: u.Profile()})
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, u models.User) bool {
	err := h.SessionMgr.SignIn(w, r, auth.SessionUser{Email: u.Email, Name: u.Name, Image: u.Image})
	if err != nil {
		h.Log.Error("sign in failed", zap.String("email", u.Email), zap.Error(err))
		respond.Error(w, h.Log, err)
		return false
	}
	return true
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleToken handles POST /auth/token, exchanging the signed-in session for
// a bearer token.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok || u == nil {
		respond.Error(w, h.Log, apperr.Unauthenticated(""))
		return
	}
	if !h.SessionMgr.TokensEnabled() {
		respond.Error(w, h.Log, apperr.NotFoundf("Bearer tokens are not enabled"))
		return
	}
	tok, exp, err := h.SessionMgr.IssueToken(*u)
	if err != nil {
		h.Log.Error("issue token failed", zap.String("email", u.Email), zap.Error(err))
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, tokenResponse{Token: tok, TokenType: "Bearer", ExpiresAt: exp})
}

// ServeMe handles GET /auth/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok || su == nil {
		respond.Error(w, h.Log, apperr.Unauthenticated(""))
		return
	}
	profile := models.Profile{Email: su.Email, Name: su.Name, Image: su.Image}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, su.Email)
	switch {
	case err == nil:
		profile = u.Profile()
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		h.Log.Warn("load profile failed", zap.String("email", su.Email), zap.Error(err))
	}
	if strings.TrimSpace(profile.Name) == "" {
		profile.Name = models.DisplayName(profile.Email, "")
	}
	respond.JSON(w, http.StatusOK, userResponse{User: profile})
}
