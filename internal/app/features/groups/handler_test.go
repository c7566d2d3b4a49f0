package groups_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/groups"
	groupsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/groups"
	invitesvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/invites"
	notifysvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/notifications"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/memstore"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*groups.Handler, *memstore.Stores) {
	t.Helper()
	st := memstore.New()
	log := zap.NewNop()
	gs := groupsvc.New(st.Groups, st.Chats, log)
	notify := notifysvc.New(st.Notifications, st.Users, log)
	is := invitesvc.New(st.Groups, st.Users, notify, nil,
		invitesvc.Config{BaseURL: "https://synapse.test/", SiteName: "SYNAPSE"}, log)
	return groups.NewHandler(gs, is, log), st
}

func createGroup(t *testing.T, h *groups.Handler, user testutil.TestUser, body map[string]any) models.Group {
	t.Helper()
	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/groups", body), user)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var g models.Group
	testutil.DecodeJSON(t, rec, &g)
	return g
}

func issueLink(t *testing.T, h *groups.Handler, user testutil.TestUser, g models.Group, role string) string {
	t.Helper()
	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/groups/invite", map[string]any{
		"groupId": g.ID.Hex(),
		"role":    role,
	}), user)
	rec := httptest.NewRecorder()
	h.HandleIssueInvite(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("invite: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool                     `json:"success"`
		Results []invitesvc.InviteResult `json:"results"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if !body.Success || len(body.Results) != 1 {
		t.Fatalf("invite body = %+v", body)
	}
	return body.Results[0].Token
}

func join(t *testing.T, h *groups.Handler, user testutil.TestUser, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/groups/join", map[string]any{"token": token}), user)
	rec := httptest.NewRecorder()
	h.HandleJoin(rec, req)
	var body map[string]any
	testutil.DecodeJSON(t, rec, &body)
	return rec, body
}

func withID(r *http.Request, g models.Group) *http.Request {
	return testutil.WithChiURLParam(r, "id", g.ID.Hex())
}

func TestHandleCreate_RequiresUser(t *testing.T) {
	h, _ := newHandler(t)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/groups", map[string]any{"name": "Alpha"}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleCreate_Validation(t *testing.T) {
	h, _ := newHandler(t)
	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"name": "  "}},
		{"bad type", map[string]any{"name": "Alpha", "type": "secret"}},
		{"bad invite method", map[string]any{"name": "Alpha", "inviteMethod": "carrier-pigeon"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/groups", tc.body), testutil.Alice())
			rec := httptest.NewRecorder()
			h.HandleCreate(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body=%s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleCreate_AndList(t *testing.T) {
	h, _ := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{"name": "Alpha", "industry": "Logistics"})

	if g.CreatedBy != testutil.Alice().Email {
		t.Errorf("createdBy = %q", g.CreatedBy)
	}
	if len(g.Members) != 1 || g.Members[0].Role != models.RoleAdmin {
		t.Fatalf("members = %+v, want creator as admin", g.Members)
	}

	req := testutil.WithUser(testutil.NewRequest(http.MethodGet, "/api/groups"), testutil.Alice())
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)
	var list []models.Group
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 1 || list[0].ID != g.ID {
		t.Fatalf("alice list = %+v", list)
	}

	req = testutil.WithUser(testutil.NewRequest(http.MethodGet, "/api/groups"), testutil.Bob())
	rec = httptest.NewRecorder()
	h.ServeList(rec, req)
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("bob list = %q, want []", got)
	}
}

func TestServeGroup_NonMemberAndMissing(t *testing.T) {
	h, _ := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{"name": "Alpha"})

	req := withID(testutil.WithUser(testutil.NewRequest(http.MethodGet, "/api/groups/x"), testutil.Bob()), g)
	rec := httptest.NewRecorder()
	h.ServeGroup(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-member status = %d, want 403", rec.Code)
	}

	req = testutil.WithChiURLParam(testutil.WithUser(testutil.NewRequest(http.MethodGet, "/api/groups/x"), testutil.Alice()), "id", "not-an-id")
	rec = httptest.NewRecorder()
	h.ServeGroup(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", rec.Code)
	}
}

func TestJoinFlow_LinkInvite(t *testing.T) {
	h, _ := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{"name": "Alpha"})
	token := issueLink(t, h, testutil.Alice(), g, "member")

	rec, body := join(t, h, testutil.Bob(), token)
	if rec.Code != http.StatusOK || body["joined"] != true {
		t.Fatalf("join: status=%d body=%v", rec.Code, body)
	}
	if body["groupName"] != "Alpha" {
		t.Errorf("groupName = %v", body["groupName"])
	}

	rec, body = join(t, h, testutil.Bob(), token)
	if rec.Code != http.StatusOK || body["alreadyMember"] != true {
		t.Fatalf("rejoin: status=%d body=%v", rec.Code, body)
	}

	// Bob now sees the group, without invites or audit.
	req := withID(testutil.WithUser(testutil.NewRequest(http.MethodGet, "/api/groups/x"), testutil.Bob()), g)
	rr := httptest.NewRecorder()
	h.ServeGroup(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("view status = %d", rr.Code)
	}
	var got models.Group
	testutil.DecodeJSON(t, rr, &got)
	if m, ok := got.MemberOf(testutil.Bob().Email); !ok || m.Role != models.RoleMember {
		t.Fatalf("bob membership = %+v, %v; want member", m, ok)
	}
	if len(got.Invites) != 0 || len(got.AuditLog) != 0 {
		t.Errorf("non-admin view leaked invites or audit: %d invites, %d audit", len(got.Invites), len(got.AuditLog))
	}
}

func TestJoin_InvalidToken(t *testing.T) {
	h, _ := newHandler(t)
	rec, _ := join(t, h, testutil.Bob(), "deadbeef")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestApprovalFlow(t *testing.T) {
	h, _ := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{
		"name":     "Alpha",
		"settings": map[string]any{"approvalRequired": true, "canSendMessages": "all", "canInviteMembers": "admin"},
	})
	token := issueLink(t, h, testutil.Alice(), g, "member")

	rec, body := join(t, h, testutil.Bob(), token)
	if rec.Code != http.StatusOK || body["pending"] != true {
		t.Fatalf("join: status=%d body=%v", rec.Code, body)
	}

	// Bob cannot approve himself.
	req := withID(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/groups/x/requests",
		map[string]any{"userId": testutil.Bob().Email, "action": "approve"}), testutil.Bob()), g)
	rr := httptest.NewRecorder()
	h.HandleProcessRequest(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("self-approve status = %d, want 403", rr.Code)
	}

	// Body-addressed form used by the original client.
	req = testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/groups/requests",
		map[string]any{"groupId": g.ID.Hex(), "userId": testutil.Bob().Email, "action": "approve"}), testutil.Alice())
	rr = httptest.NewRecorder()
	h.HandleProcessRequest(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("approve status = %d body=%s", rr.Code, rr.Body.String())
	}

	req = withID(testutil.WithUser(testutil.NewRequest(http.MethodGet, "/api/groups/x"), testutil.Bob()), g)
	rr = httptest.NewRecorder()
	h.ServeGroup(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("approved member view status = %d", rr.Code)
	}
}

func TestHandleProcessRequest_Validation(t *testing.T) {
	h, _ := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{"name": "Alpha"})

	req := withID(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/groups/x/requests",
		map[string]any{"userId": testutil.Bob().Email}), testutil.Alice()), g)
	rec := httptest.NewRecorder()
	h.HandleProcessRequest(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing action status = %d, want 400", rec.Code)
	}

	req = testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/groups/requests",
		map[string]any{"userId": testutil.Bob().Email, "action": "approve"}), testutil.Alice())
	rec = httptest.NewRecorder()
	h.HandleProcessRequest(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing group status = %d, want 400", rec.Code)
	}
}

func TestRolesAndRemoval(t *testing.T) {
	h, _ := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{"name": "Alpha"})
	join(t, h, testutil.Bob(), issueLink(t, h, testutil.Alice(), g, "member"))
	join(t, h, testutil.Carol(), issueLink(t, h, testutil.Alice(), g, "member"))

	req := withID(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/api/groups/x/roles",
		map[string]any{"userId": testutil.Carol().Email, "role": "viewer"}), testutil.Bob()), g)
	rec := httptest.NewRecorder()
	h.HandleUpdateRole(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member role change status = %d, want 403", rec.Code)
	}

	req = withID(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/api/groups/x/roles",
		map[string]any{"userId": testutil.Carol().Email, "role": "viewer"}), testutil.Alice()), g)
	rec = httptest.NewRecorder()
	h.HandleUpdateRole(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("role change status = %d body=%s", rec.Code, rec.Body.String())
	}
	var roleBody map[string]any
	testutil.DecodeJSON(t, rec, &roleBody)
	if roleBody["message"] != "Role updated to viewer" {
		t.Errorf("message = %v", roleBody["message"])
	}

	// Bob leaves on his own.
	req = withID(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodDelete, "/api/groups/x/members",
		map[string]any{"userId": testutil.Bob().Email}), testutil.Bob()), g)
	rec = httptest.NewRecorder()
	h.HandleRemoveMember(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("leave status = %d body=%s", rec.Code, rec.Body.String())
	}
	var removed struct {
		Message string              `json:"message"`
		Members []models.Membership `json:"members"`
	}
	testutil.DecodeJSON(t, rec, &removed)
	if removed.Message != "Member removed successfully" || len(removed.Members) != 2 {
		t.Fatalf("remove body = %+v", removed)
	}
}

func TestMemoryRoutes(t *testing.T) {
	h, _ := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{"name": "Alpha"})

	req := withID(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/groups/x/memory",
		map[string]any{"key": "budget", "value": "40k"}), testutil.Alice()), g)
	rec := httptest.NewRecorder()
	h.HandleAddMemory(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("add memory status = %d body=%s", rec.Code, rec.Body.String())
	}

	req = testutil.WithChiURLParam(withID(testutil.WithUser(
		testutil.NewRequest(http.MethodDelete, "/api/groups/x/memory/budget"), testutil.Alice()), g), "key", "budget")
	rec = httptest.NewRecorder()
	h.HandleRemoveMemory(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove memory status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestInvitesAdminOnlyAndCancel(t *testing.T) {
	h, _ := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{"name": "Alpha"})
	token := issueLink(t, h, testutil.Alice(), g, "member")
	join(t, h, testutil.Bob(), issueLink(t, h, testutil.Alice(), g, "member"))

	req := withID(testutil.WithUser(testutil.NewRequest(http.MethodGet, "/api/groups/x/invites"), testutil.Bob()), g)
	rec := httptest.NewRecorder()
	h.ServeInvites(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member list status = %d, want 403", rec.Code)
	}

	req = withID(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/api/groups/x/invites",
		map[string]any{"token": token, "action": "cancel"}), testutil.Alice()), g)
	rec = httptest.NewRecorder()
	h.HandleManageInvite(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d body=%s", rec.Code, rec.Body.String())
	}

	rr, _ := join(t, h, testutil.Carol(), token)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("join cancelled invite status = %d, want 400", rr.Code)
	}
}

func TestServePreview(t *testing.T) {
	h, _ := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{"name": "Alpha", "description": "Ops"})
	token := issueLink(t, h, testutil.Alice(), g, "viewer")

	req := testutil.WithChiURLParam(testutil.WithUser(testutil.NewRequest(http.MethodGet, "/api/invites/x"), testutil.Bob()), "token", token)
	rec := httptest.NewRecorder()
	h.ServePreview(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var p invitesvc.Preview
	testutil.DecodeJSON(t, rec, &p)
	if p.GroupName != "Alpha" || p.Role != models.RoleViewer || !p.Valid {
		t.Fatalf("preview = %+v", p)
	}
}

func TestIssueInvite_UnknownRoleRejected(t *testing.T) {
	h, _ := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{"name": "Alpha"})

	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/groups/invite", map[string]any{
		"groupId": g.ID.Hex(),
		"role":    "editor",
	}), testutil.Alice())
	rec := httptest.NewRecorder()
	h.HandleIssueInvite(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("editor role status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_role") {
		t.Errorf("body = %s, want invalid_role", rec.Body.String())
	}
}

func TestDelete_AdminOnly(t *testing.T) {
	h, st := newHandler(t)
	g := createGroup(t, h, testutil.Alice(), map[string]any{"name": "Alpha"})
	join(t, h, testutil.Bob(), issueLink(t, h, testutil.Alice(), g, "member"))

	req := withID(testutil.WithUser(testutil.NewRequest(http.MethodDelete, "/api/groups/x"), testutil.Bob()), g)
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member delete status = %d, want 403", rec.Code)
	}

	req = withID(testutil.WithUser(testutil.NewRequest(http.MethodDelete, "/api/groups/x"), testutil.Alice()), g)
	rec = httptest.NewRecorder()
	h.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete status = %d body=%s", rec.Code, rec.Body.String())
	}
	if _, err := st.Groups.GetByID(req.Context(), g.ID); err == nil {
		t.Fatalf("group still present after delete")
	}
}
