package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/logout"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*logout.Handler, *auth.SessionManager) {
	t.Helper()
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return logout.NewHandler(sessionMgr, logger), sessionMgr
}

func TestHandleLogout_ClearsSessionCookie(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.WithUser(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), testutil.Alice())
	rec := httptest.NewRecorder()

	handler.HandleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge != -1 {
				t.Errorf("cookie MaxAge: got %d, want -1 (delete)", c.MaxAge)
			}
			break
		}
	}
	if !found {
		t.Error("expected session cookie to be set for deletion")
	}
}

func TestHandleLogout_EndsSession(t *testing.T) {
	handler, sm := newTestHandler(t)

	signin := httptest.NewRecorder()
	if err := sm.SignIn(signin, httptest.NewRequest(http.MethodPost, "/", nil), auth.SessionUser{Email: "alice@test.com"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	for _, c := range signin.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	logout.Routes(handler).ServeHTTP(rec, req)

	// A request carrying the cleared cookie is anonymous.
	after := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge > 0 {
			after.AddCookie(c)
		}
	}
	var signedIn bool
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, signedIn = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), after)
	if signedIn {
		t.Error("expected no user after logout")
	}
}

func TestHandleLogout_WithoutSession(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	handler.HandleLogout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
