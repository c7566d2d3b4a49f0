// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/oauthstate"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/normalize"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/timeouts"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// SignInPath is where failed sign-ins are sent, with ?error=code.
	SignInPath = "/sign-in"
	// DefaultReturn is where a successful sign-in lands without a return URL.
	DefaultReturn = "/chat"
	// GoogleUserInfoURL is Google's profile endpoint.
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	stateTTL = 10 * time.Minute
)

// StateStore keeps one-time OAuth state tokens.
type StateStore interface {
	Save(ctx context.Context, state string, rd oauthstate.Redirect, expiresAt time.Time) error
	Consume(ctx context.Context, state string) (oauthstate.Redirect, bool, error)
}

// Directory records the signed-in user.
type Directory interface {
	Upsert(ctx context.Context, email, name, image string) (models.User, error)
}

// Handler handles Google OAuth authentication.
type Handler struct {
	SessionMgr *auth.SessionManager
	States     StateStore
	Users      Directory
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://synapse.example/auth/google/callback"

	// Endpoint and UserInfoURL default to Google's; tests point them at a
	// local server.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	sessionMgr *auth.SessionManager,
	states StateStore,
	users Directory,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		SessionMgr:   sessionMgr,
		States:       states,
		Users:        users,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  GoogleUserInfoURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, SignInPath+"?error="+url.QueryEscape(code), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Redirects to Google's consent screen. ?return= and ?invite= survive the     |
| round trip in the state record.                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.fail(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	rd := oauthstate.Redirect{
		ReturnURL:   query.Get(r, "return"),
		InviteToken: query.Get(r, "invite"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.States.Save(ctx, state, rd, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	dest := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOnline)
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", rd.ReturnURL))
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the profile, records the user in the directory  |
| and signs them in.                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.fail(w, r, "google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.fail(w, r, "invalid_state")
		return
	}

	sctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	rd, valid, err := h.States.Consume(sctx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.fail(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.fail(w, r, "invalid_code")
		return
	}

	uctx, ucancel := timeouts.WithTimeout(ctx, timeouts.Upstream(), h.Log, "google token exchange")
	defer ucancel()

	token, err := h.oauth2Config().Exchange(uctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.fail(w, r, "token_exchange")
		return
	}

	info, err := h.fetchUserInfo(uctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.fail(w, r, "user_info")
		return
	}
	email := normalize.Email(info.Email)
	if email == "" || !info.EmailVerified {
		h.Log.Warn("Google account without a verified email", zap.String("google_id", info.ID))
		h.fail(w, r, "email_unverified")
		return
	}

	dctx, dcancel := context.WithTimeout(ctx, timeouts.Short())
	defer dcancel()

	u, err := h.Users.Upsert(dctx, email, info.Name, info.Picture)
	if err != nil {
		h.Log.Error("directory upsert failed", zap.String("email", email), zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{Email: u.Email, Name: u.Name, Image: u.Image}); err != nil {
		h.Log.Error("save session failed", zap.String("email", email), zap.Error(err))
		h.fail(w, r, "session")
		return
	}

	h.Log.Info("user signed in via Google OAuth", zap.String("email", email))

	dest := urlutil.SafeReturn(rd.ReturnURL, "", DefaultReturn)
	if rd.InviteToken != "" {
		dest = "/invite/" + url.PathEscape(rd.InviteToken)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.oauth2Config().Client(ctx, token)

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
