package contact_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/contact"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/memstore"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/ratelimit"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/testutil"
	"go.uber.org/zap"
)

func TestHandleSubmit_Stores(t *testing.T) {
	st := memstore.NewContacts()
	h := contact.NewHandler(st, zap.NewNop())

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", map[string]any{
		"name":    "Dana",
		"email":   "Dana@Example.com",
		"message": "Hello <script>alert(1)</script>there",
	})
	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	all := st.All()
	if len(all) != 1 {
		t.Fatalf("stored = %d, want 1", len(all))
	}
	got := all[0]
	if got.Email != "dana@example.com" {
		t.Errorf("email = %q", got.Email)
	}
	if strings.Contains(got.Message, "<script>") {
		t.Errorf("message not sanitized: %q", got.Message)
	}
	if got.Status != "new" {
		t.Errorf("status = %q, want new", got.Status)
	}
}

func TestHandleSubmit_MissingFields(t *testing.T) {
	h := contact.NewHandler(memstore.NewContacts(), zap.NewNop())
	for _, body := range []map[string]any{
		{"email": "a@b.co", "message": "hi"},
		{"name": "A", "message": "hi"},
		{"name": "A", "email": "a@b.co", "message": "   "},
	} {
		rec := httptest.NewRecorder()
		h.HandleSubmit(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %v: status = %d, want 400", body, rec.Code)
		}
		var out map[string]string
		testutil.DecodeJSON(t, rec, &out)
		if out["error"] != "Missing required fields" {
			t.Errorf("error = %q", out["error"])
		}
	}
}

func TestRoutes_RateLimited(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	t.Cleanup(limiter.Stop)
	r := contact.Routes(contact.NewHandler(memstore.NewContacts(), zap.NewNop()), limiter)

	body := map[string]any{"name": "A", "email": "a@b.co", "message": "hi"}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", body))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
}
