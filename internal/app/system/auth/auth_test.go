package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret-for-unit-tests-only"

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm.WithTokens(testSecret, time.Hour)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "x", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_API_Returns401JSON(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	req := httptest.NewRequest("GET", "/api/groups", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"Unauthorized"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestRequireSignedIn_NoUser_HTML_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	req := httptest.NewRequest("GET", "/chat?x=1", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?return=") {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	req := httptest.NewRequest("GET", "/api/groups", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{Email: "a@test.com"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestSignIn_CookieRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", nil)
	if err := sm.SignIn(rec, req, auth.SessionUser{Email: "ada@test.com", Name: "Ada"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	next := httptest.NewRequest("GET", "/api/groups", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), next)

	if got == nil || got.Email != "ada@test.com" || got.Name != "Ada" {
		t.Fatalf("session user not restored: %+v", got)
	}
}

func TestLoadSessionUser_TamperedCookieIgnored(t *testing.T) {
	sm := newTestSessionManager(t)

	var found bool
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "garbage"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Fatal("tampered cookie must not authenticate")
	}
}

func TestLoadSessionUser_Bearer(t *testing.T) {
	sm := newTestSessionManager(t)
	token, exp, err := sm.IssueToken(auth.SessionUser{Email: "bob@test.com", Name: "Bob"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry should be in the future: %v", exp)
	}

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/api/chats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Email != "bob@test.com" {
		t.Fatalf("bearer user not loaded: %+v", got)
	}
}

type stubFetcher struct{ users map[string]*auth.SessionUser }

func (f stubFetcher) FetchUser(_ context.Context, email string) *auth.SessionUser {
	return f.users[email]
}

func TestLoadSessionUser_FetcherRefreshesAndDrops(t *testing.T) {
	sm := newTestSessionManager(t).WithFetcher(stubFetcher{users: map[string]*auth.SessionUser{
		"bob@test.com": {Email: "bob@test.com", Name: "Robert"},
	}})

	run := func(email string) *auth.SessionUser {
		token, _, err := sm.IssueToken(auth.SessionUser{Email: email, Name: "Old"})
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		var got *auth.SessionUser
		h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = auth.CurrentUser(r)
		}))
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(httptest.NewRecorder(), req)
		return got
	}

	if got := run("bob@test.com"); got == nil || got.Name != "Robert" {
		t.Errorf("expected refreshed name, got %+v", got)
	}
	if got := run("gone@test.com"); got != nil {
		t.Errorf("removed user should not authenticate, got %+v", got)
	}
}

func TestParseToken_Rejections(t *testing.T) {
	token, _, err := auth.GenerateToken(auth.SessionUser{Email: "a@test.com"}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := auth.ParseToken(token, "wrong-secret"); err == nil {
		t.Error("expected signature error")
	}

	fallback, _, err := auth.GenerateToken(auth.SessionUser{Email: "a@test.com"}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	// A non-positive TTL falls back to the default, so this token is valid.
	if _, err := auth.ParseToken(fallback, testSecret); err != nil {
		t.Errorf("default ttl token should parse: %v", err)
	}

	claims, err := auth.ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.ID == "" || claims.Email != "a@test.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest("POST", "/auth/logout", nil)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge >= 0 {
			t.Errorf("expected expired cookie, got MaxAge %d", c.MaxAge)
		}
	}
}
