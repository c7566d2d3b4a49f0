package authgoogle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/authgoogle"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/memstore"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/oauthstate"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "g-123",
			"email":          "Dana@Example.com",
			"verified_email": verified,
			"name":           "Dana",
			"picture":        "https://img.test/dana.png",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type env struct {
	h      *authgoogle.Handler
	st     *memstore.Stores
	states *memstore.OAuthStates
}

func newEnv(t *testing.T, srv *httptest.Server) *env {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "synapse-test", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	st := memstore.New()
	h := authgoogle.NewHandler(sm, st.OAuthStates, st.Users, "client-id", "client-secret", "http://localhost:8080/", logger)
	if srv != nil {
		h.Endpoint = oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}
		h.UserInfoURL = srv.URL + "/userinfo"
	}
	return &env{h: h, st: st, states: st.OAuthStates}
}

func startLogin(t *testing.T, e *env, target string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("login status = %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("no state in %s", loc)
	}
	return state
}

func TestNewHandler_RedirectURL(t *testing.T) {
	e := newEnv(t, nil)
	if e.h.RedirectURL != "http://localhost:8080/auth/google/callback" {
		t.Fatalf("RedirectURL = %q", e.h.RedirectURL)
	}
	if !e.h.IsConfigured() {
		t.Fatal("IsConfigured() = false with client id and secret")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	e := newEnv(t, nil)
	e.h.ClientID = ""
	rec := httptest.NewRecorder()
	e.h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=google_not_configured") {
		t.Fatalf("Location = %q", loc)
	}
}

func TestServeLogin_StoresState(t *testing.T) {
	e := newEnv(t, nil)
	state := startLogin(t, e, "/auth/google?return=/chat?g=1&invite=abc123")

	rd, ok, err := e.states.Consume(context.Background(), state)
	if err != nil || !ok {
		t.Fatalf("Consume = %v, %v", ok, err)
	}
	if rd.InviteToken != "abc123" {
		t.Errorf("invite token = %q", rd.InviteToken)
	}
}

func TestServeCallback_InvalidState(t *testing.T) {
	e := newEnv(t, nil)
	rec := httptest.NewRecorder()
	e.h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=nope&code=x", nil))
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=invalid_state") {
		t.Fatalf("Location = %q", loc)
	}
}

func TestServeCallback_GoogleDenied(t *testing.T) {
	e := newEnv(t, nil)
	rec := httptest.NewRecorder()
	e.h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied", nil))
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=google_denied") {
		t.Fatalf("Location = %q", loc)
	}
}

func TestServeCallback_SignsInAndUpserts(t *testing.T) {
	srv := fakeGoogle(t, true)
	e := newEnv(t, srv)
	state := startLogin(t, e, "/auth/google")

	rec := httptest.NewRecorder()
	e.h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+url.QueryEscape(state)+"&code=abc", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != authgoogle.DefaultReturn {
		t.Fatalf("Location = %q, want %q", loc, authgoogle.DefaultReturn)
	}
	if rec.Header().Get("Set-Cookie") == "" {
		t.Fatal("no session cookie set")
	}

	u, err := e.st.Users.GetByEmail(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("user not upserted: %v", err)
	}
	if u.Name != "Dana" || u.Image != "https://img.test/dana.png" {
		t.Errorf("user = %+v", u)
	}

	// The state is single-use.
	rec = httptest.NewRecorder()
	e.h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+url.QueryEscape(state)+"&code=abc", nil))
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=invalid_state") {
		t.Fatalf("replayed state Location = %q", loc)
	}
}

func TestServeCallback_InviteRedirect(t *testing.T) {
	srv := fakeGoogle(t, true)
	e := newEnv(t, srv)
	if err := e.states.Save(context.Background(), "s1", oauthstate.Redirect{InviteToken: "tok"}, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec := httptest.NewRecorder()
	e.h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=s1&code=abc", nil))
	if loc := rec.Header().Get("Location"); loc != "/invite/tok" {
		t.Fatalf("Location = %q, want /invite/tok", loc)
	}
}

func TestServeCallback_UnverifiedEmail(t *testing.T) {
	srv := fakeGoogle(t, false)
	e := newEnv(t, srv)
	state := startLogin(t, e, "/auth/google")

	rec := httptest.NewRecorder()
	e.h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+url.QueryEscape(state)+"&code=abc", nil))
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=email_unverified") {
		t.Fatalf("Location = %q", loc)
	}
}
