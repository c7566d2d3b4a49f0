package chatsvc_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	chatsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/chats"
	groupsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/groups"
	invitesvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/invites"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/memstore"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auditlog"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/completion"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	alice = models.Actor{Email: "alice@test.com", Name: "Alice"}
	bob   = models.Actor{Email: "bob@test.com", Name: "Bob"}
	carol = models.Actor{Email: "carol@test.com", Name: "Carol"}
)

// fakeProvider replays scripted responses and records every request.
type fakeProvider struct {
	mu        sync.Mutex
	responses []completion.Response
	err       error
	requests  []completion.Request
}

func (p *fakeProvider) Complete(_ context.Context, req completion.Request) (completion.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return completion.Response{}, p.err
	}
	if len(p.responses) == 0 {
		return completion.Response{Content: "ok"}, nil
	}
	r := p.responses[0]
	p.responses = p.responses[1:]
	return r, nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

type fakeImages struct {
	url string
	err error
}

func (f fakeImages) Generate(context.Context, string) (string, error) { return f.url, f.err }

type fakeSearch struct{ queries []string }

func (f *fakeSearch) Search(_ context.Context, q string) (string, error) {
	f.queries = append(f.queries, q)
	return "Result: " + q, nil
}

func newService(t *testing.T) (*chatsvc.Service, *memstore.Stores) {
	t.Helper()
	st := memstore.New()
	return chatsvc.New(st.Chats, st.Groups, zap.NewNop()), st
}

func seedGroup(t *testing.T, st *memstore.Stores, members ...models.Membership) models.Group {
	t.Helper()
	g, err := st.Groups.Create(context.Background(), models.Group{
		Name:      "Alpha",
		Industry:  "Logistics",
		Type:      models.GroupPrivate,
		Settings:  models.DefaultSettings(),
		CreatedBy: alice.Email,
		Members:   append([]models.Membership{{UserID: alice.Email, UserName: "Alice", Role: models.RoleAdmin}}, members...),
	})
	if err != nil {
		t.Fatalf("seed group: %v", err)
	}
	return g
}

func cfg(p completion.Provider) completion.Config {
	return completion.Config{Provider: p}
}

func TestSend_PersonalChat(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p := &fakeProvider{responses: []completion.Response{{Content: "Hi Alice"}}}

	res, err := svc.Send(ctx, alice, chatsvc.SendInput{Message: "Hello"}, cfg(p))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Response != "Hi Alice" || res.Title != "Hello" {
		t.Errorf("result: %+v", res)
	}
	if len(res.Messages) != 2 {
		t.Fatalf("messages: %+v", res.Messages)
	}
	if m := res.Messages[0]; m.Role != models.MessageUser || m.Content != "Hello" || m.SenderName != "Alice" {
		t.Errorf("user message: %+v", m)
	}
	if m := res.Messages[1]; m.Role != models.MessageAI || m.SenderName != chatsvc.AssistantName {
		t.Errorf("ai message: %+v", m)
	}

	c, err := svc.Get(ctx, alice, res.ChatID.Hex())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.UserID != alice.Email || c.IsGroupChat() {
		t.Errorf("personal chat ownership: %+v", c)
	}

	req := p.requests[0]
	if req.Model != completion.DefaultModel || req.MaxTokens != completion.DefaultMaxTokens {
		t.Errorf("defaults not applied: %+v", req)
	}
	if req.Messages[0].Role != completion.RoleSystem || !strings.Contains(req.Messages[0].Content, "BUSINESS MODE") {
		t.Errorf("system prompt: %q", req.Messages[0].Content)
	}
	if len(req.Tools) != 0 {
		t.Error("tools must be off unless enabled")
	}

	// Continuing the same chat sends the full history.
	if _, err := svc.Send(ctx, alice, chatsvc.SendInput{ChatID: res.ChatID.Hex(), Message: "Again"}, cfg(p)); err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if got := len(p.requests[1].Messages); got != 4 {
		t.Errorf("second request history: got %d messages, want 4", got)
	}
}

func TestSend_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p := &fakeProvider{}

	if _, err := svc.Send(ctx, alice, chatsvc.SendInput{Message: "  "}, cfg(p)); apperr.KindOf(err) != apperr.Validation {
		t.Errorf("empty message: expected validation error, got %v", err)
	}
	if _, err := svc.Send(ctx, alice, chatsvc.SendInput{Message: "x", Persona: "poet"}, cfg(p)); apperr.KindOf(err) != apperr.Validation {
		t.Errorf("bad persona: expected validation error, got %v", err)
	}
	if _, err := svc.Send(ctx, alice, chatsvc.SendInput{Message: "x"}, completion.Config{}); apperr.KindOf(err) != apperr.Upstream {
		t.Errorf("no provider: expected upstream error, got %v", err)
	}
	if _, err := svc.Send(ctx, alice, chatsvc.SendInput{Message: "x", GroupID: "not-hex"}, cfg(p)); apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("bad group: expected not found, got %v", err)
	}
	if p.calls() != 0 {
		t.Error("provider must not be called for rejected sends")
	}
}

func TestSend_ImageOnly(t *testing.T) {
	svc, _ := newService(t)
	p := &fakeProvider{}

	res, err := svc.Send(context.Background(), alice, chatsvc.SendInput{Image: "https://img/x.png"}, cfg(p))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Title != models.DefaultChatTitle {
		t.Errorf("title: %q", res.Title)
	}
	u := res.Messages[0]
	if u.Content != "Visual Asset Transmitted" || u.Image != "https://img/x.png" {
		t.Errorf("user message: %+v", u)
	}
	wire := p.requests[0].Messages[1]
	if wire.ImageURL != "https://img/x.png" {
		t.Errorf("image not forwarded to the provider: %+v", wire)
	}
}

func TestSend_ViewerReadOnly(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	g := seedGroup(t, st, models.Membership{UserID: carol.Email, Role: models.RoleViewer})
	p := &fakeProvider{}

	res, err := svc.Send(ctx, alice, chatsvc.SendInput{GroupID: g.ID.Hex(), Message: "Status?"}, cfg(p))
	if err != nil {
		t.Fatalf("admin Send: %v", err)
	}
	chatID := res.ChatID.Hex()

	_, err = svc.Send(ctx, carol, chatsvc.SendInput{ChatID: chatID, Message: "Me too"}, cfg(p))
	if apperr.KindOf(err) != apperr.Authorization || apperr.HTTPStatus(err) != 403 {
		t.Fatalf("viewer send into chat: expected 403, got %v", err)
	}
	if _, msg := apperr.Public(err); msg != "Viewers are not permitted to send messages" {
		t.Errorf("viewer message: %q", msg)
	}
	if _, err := svc.Send(ctx, carol, chatsvc.SendInput{GroupID: g.ID.Hex(), Message: "New"}, cfg(p)); apperr.HTTPStatus(err) != 403 {
		t.Errorf("viewer starting a group chat: expected 403, got %v", err)
	}
	if _, err := svc.ReplaceMessages(ctx, carol, chatID, []models.Message{}); apperr.HTTPStatus(err) != 403 {
		t.Errorf("viewer replace: expected 403, got %v", err)
	}
	if _, err := svc.Revert(ctx, carol, chatID, 0); apperr.HTTPStatus(err) != 403 {
		t.Errorf("viewer revert: expected 403, got %v", err)
	}
	if err := svc.Delete(ctx, carol, chatID); apperr.HTTPStatus(err) != 403 {
		t.Errorf("viewer delete: expected 403, got %v", err)
	}

	c, err := svc.Get(ctx, carol, chatID)
	if err != nil {
		t.Fatalf("viewer read: %v", err)
	}
	if len(c.Messages) != 2 {
		t.Errorf("viewer attempts must not change history, got %d messages", len(c.Messages))
	}
	if p.calls() != 1 {
		t.Errorf("provider calls: %d", p.calls())
	}
}

func TestSend_SendRestricted(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	g := seedGroup(t, st, models.Membership{UserID: bob.Email, Role: models.RoleMember})
	patch := models.DefaultSettings()
	patch.CanSendMessages = models.SendAdmin
	if _, err := st.Groups.ApplyPatch(ctx, g.ID, models.GroupPatch{Settings: &patch}, models.AuditEntry{Action: models.AuditUpdateSettings}); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	if _, err := svc.Send(ctx, bob, chatsvc.SendInput{GroupID: g.ID.Hex(), Message: "hi"}, cfg(&fakeProvider{})); apperr.KindOf(err) != apperr.Authorization {
		t.Errorf("member under admin-only sending: expected forbidden, got %v", err)
	}
}

func TestPersonalChat_OtherUserConcealed(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Send(ctx, alice, chatsvc.SendInput{Message: "Hello"}, cfg(&fakeProvider{}))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Title != "Hello" {
		t.Errorf("title: %q", res.Title)
	}

	_, err = svc.Get(ctx, carol, res.ChatID.Hex())
	if apperr.HTTPStatus(err) != 401 {
		t.Fatalf("foreign personal chat: expected 401, got %v", err)
	}
	if err := svc.Delete(ctx, carol, res.ChatID.Hex()); apperr.HTTPStatus(err) != 401 {
		t.Errorf("foreign delete: expected 401, got %v", err)
	}
	if _, err := svc.ReplaceMessages(ctx, carol, res.ChatID.Hex(), []models.Message{}); apperr.HTTPStatus(err) != 401 {
		t.Errorf("foreign replace: expected 401, got %v", err)
	}
	if _, err := svc.Send(ctx, carol, chatsvc.SendInput{ChatID: res.ChatID.Hex(), Message: "sneak"}, cfg(&fakeProvider{})); apperr.HTTPStatus(err) != 401 {
		t.Errorf("foreign send: expected 401, got %v", err)
	}
}

func TestList_Isolation(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	g := seedGroup(t, st)
	p := &fakeProvider{}

	if _, err := svc.Send(ctx, alice, chatsvc.SendInput{Message: "mine"}, cfg(p)); err != nil {
		t.Fatalf("personal Send: %v", err)
	}
	if _, err := svc.Send(ctx, alice, chatsvc.SendInput{GroupID: g.ID.Hex(), Message: "shared"}, cfg(p)); err != nil {
		t.Fatalf("group Send: %v", err)
	}

	personal, err := svc.List(ctx, alice, "")
	if err != nil {
		t.Fatalf("List personal: %v", err)
	}
	if len(personal) != 1 || personal[0].Title != "mine" {
		t.Errorf("personal listing: %+v", personal)
	}
	for _, c := range personal {
		if c.GroupID != nil {
			t.Errorf("personal listing leaked group chat %s", c.ID.Hex())
		}
	}

	group, err := svc.List(ctx, alice, g.ID.Hex())
	if err != nil {
		t.Fatalf("List group: %v", err)
	}
	if len(group) != 1 || group[0].Title != "shared" {
		t.Errorf("group listing: %+v", group)
	}

	if _, err := svc.List(ctx, carol, g.ID.Hex()); apperr.KindOf(err) != apperr.Authorization {
		t.Errorf("non-member group listing: expected forbidden, got %v", err)
	}
	if other, _ := svc.List(ctx, carol, ""); len(other) != 0 {
		t.Errorf("carol sees %d personal chats", len(other))
	}
}

func TestList_NonMemberDenialAuditLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	st := memstore.New()
	svc := chatsvc.New(st.Chats, st.Groups, zap.NewNop()).
		WithAuditLog(auditlog.New(zap.New(core), auditlog.Config{}))
	g := seedGroup(t, st)

	if _, err := svc.List(context.Background(), carol, g.ID.Hex()); apperr.KindOf(err) != apperr.Authorization {
		t.Fatalf("non-member group listing: expected forbidden, got %v", err)
	}
	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	f := entries[0].ContextMap()
	if f["operation"] != "chat.list" || f["actor"] != carol.Email || f["group_id"] != g.ID.Hex() || f["failure_reason"] != "not_member" {
		t.Errorf("denial fields = %v", f)
	}
}

func TestRevert(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	c, err := st.Chats.Create(ctx, models.Chat{UserID: alice.Email, Title: "t"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	m := []models.Message{
		{Role: models.MessageUser, Content: "m0"},
		{Role: models.MessageAI, Content: "m1"},
		{Role: models.MessageUser, Content: "m2"},
		{Role: models.MessageAI, Content: "m3"},
	}
	if err := svc.Append(ctx, c.ID, m...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if _, err := svc.Revert(ctx, alice, c.ID.Hex(), 5); apperr.KindOf(err) != apperr.Validation {
		t.Errorf("out of range: expected validation error, got %v", err)
	}

	got, err := svc.Revert(ctx, alice, c.ID.Hex(), 2)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if len(got) != 2 || got[0].Content != "m0" || got[1].Content != "m1" {
		t.Fatalf("reverted: %+v", got)
	}

	p := &fakeProvider{}
	if _, err := svc.Send(ctx, alice, chatsvc.SendInput{ChatID: c.ID.Hex(), Message: "next"}, cfg(p)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	wire := p.requests[0].Messages
	if len(wire) != 4 || wire[1].Content != "m0" || wire[2].Content != "m1" || wire[3].Content != "next" {
		t.Errorf("send after revert did not start from the truncated history: %+v", wire)
	}
}

func TestReplaceMessages_Validation(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	c, err := st.Chats.Create(ctx, models.Chat{UserID: alice.Email, Title: "t"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.ReplaceMessages(ctx, alice, c.ID.Hex(), nil); apperr.KindOf(err) != apperr.Validation {
		t.Errorf("nil messages: expected validation error, got %v", err)
	}
	if _, err := svc.ReplaceMessages(ctx, alice, c.ID.Hex(), []models.Message{{Role: "robot"}}); apperr.KindOf(err) != apperr.Validation {
		t.Errorf("bad role: expected validation error, got %v", err)
	}
	if _, err := svc.ReplaceMessages(ctx, alice, "abc", []models.Message{}); apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("bad id: expected not found, got %v", err)
	}
	got, err := svc.ReplaceMessages(ctx, alice, c.ID.Hex(), []models.Message{{Role: models.MessageUser, Content: "only"}})
	if err != nil || len(got) != 1 || got[0].Timestamp.IsZero() {
		t.Errorf("replace: %+v %v", got, err)
	}
}

func TestSend_ToolRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p := &fakeProvider{responses: []completion.Response{
		{ToolCalls: []models.ToolCall{
			{ID: "call_1", Type: "function", Function: models.FunctionCall{Name: completion.ToolWebSearch, Arguments: `{"query":"oil price"}`}},
			{ID: "call_2", Type: "function", Function: models.FunctionCall{Name: completion.ToolStockChart, Arguments: `{"symbol":"NASDAQ:AAPL"}`}},
		}},
		{Content: ""},
	}}
	search := &fakeSearch{}

	res, err := svc.Send(ctx, alice, chatsvc.SendInput{Message: "What is oil at?"},
		completion.Config{Provider: p, Search: search, EnableTools: true})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Response != "Analysis complete." {
		t.Errorf("fallback reply: %q", res.Response)
	}

	roles := []models.MessageRole{}
	for _, m := range res.Messages {
		roles = append(roles, m.Role)
	}
	want := []models.MessageRole{models.MessageUser, models.MessageAI, models.MessageTool, models.MessageTool, models.MessageAI}
	if len(roles) != len(want) {
		t.Fatalf("persisted roles: %v", roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("persisted roles: %v", roles)
		}
	}
	if len(res.Messages[1].ToolCalls) != 2 {
		t.Errorf("intent should carry the tool calls: %+v", res.Messages[1])
	}
	if m := res.Messages[2]; m.ToolCallID != "call_1" || m.Name != completion.ToolWebSearch || m.Content != "Result: oil price" {
		t.Errorf("search tool message: %+v", m)
	}
	if m := res.Messages[3]; !strings.Contains(m.Content, `"symbol":"NASDAQ:AAPL"`) || !strings.Contains(m.Content, `"interval":"D"`) {
		t.Errorf("chart tool message: %+v", m)
	}

	if len(p.requests) != 2 {
		t.Fatalf("provider calls: %d", len(p.requests))
	}
	if len(p.requests[0].Tools) != 2 {
		t.Errorf("first request tools: %d", len(p.requests[0].Tools))
	}
	second := p.requests[1]
	if len(second.Tools) != 0 {
		t.Error("second request must not offer tools")
	}
	last := second.Messages[len(second.Messages)-1]
	if last.Role != completion.RoleTool || last.ToolCallID != "call_2" || !strings.HasPrefix(last.Content, "Chart for NASDAQ:AAPL") {
		t.Errorf("tool result sent back: %+v", last)
	}
	if len(search.queries) != 1 || search.queries[0] != "oil price" {
		t.Errorf("search queries: %v", search.queries)
	}
}

func TestSend_ToolFailureDoesNotAbort(t *testing.T) {
	svc, _ := newService(t)
	p := &fakeProvider{responses: []completion.Response{
		{ToolCalls: []models.ToolCall{{ID: "c", Function: models.FunctionCall{Name: completion.ToolWebSearch, Arguments: `not json`}}}},
		{Content: "Here is what I know."},
	}}

	res, err := svc.Send(context.Background(), alice, chatsvc.SendInput{Message: "news?"},
		completion.Config{Provider: p, EnableTools: true})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Response != "Here is what I know." {
		t.Errorf("reply: %q", res.Response)
	}
	if m := res.Messages[2]; m.Role != models.MessageTool || !strings.HasPrefix(m.Content, "Search failed") {
		t.Errorf("tool failure message: %+v", m)
	}
}

func TestSend_ProviderFailureKeepsUserMessage(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p := &fakeProvider{err: errors.New("connection reset")}

	_, err := svc.Send(ctx, alice, chatsvc.SendInput{Message: "Important question"}, cfg(p))
	if apperr.KindOf(err) != apperr.Upstream || apperr.HTTPStatus(err) != 502 {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if _, msg := apperr.Public(err); strings.Contains(msg, "connection reset") {
		t.Error("provider detail leaked to caller")
	}

	list, err := svc.List(ctx, alice, "")
	if err != nil || len(list) != 1 {
		t.Fatalf("chat should exist after provider failure: %+v %v", list, err)
	}
	c, err := svc.Get(ctx, alice, list[0].ID.Hex())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(c.Messages) != 1 || c.Messages[0].Content != "Important question" {
		t.Errorf("user message not persisted: %+v", c.Messages)
	}
}

func TestSend_ImageGeneration(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p := &fakeProvider{}

	res, err := svc.Send(ctx, alice, chatsvc.SendInput{Message: "Please draw a harbor at dusk"},
		completion.Config{Provider: p, Images: fakeImages{url: "https://img/gen.png"}})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if p.calls() != 0 {
		t.Error("successful image generation should not call the text provider")
	}
	if !strings.Contains(res.Response, "![Generated Image](https://img/gen.png)") {
		t.Errorf("response: %q", res.Response)
	}
	if last := res.Messages[len(res.Messages)-1]; last.Image != "https://img/gen.png" || last.Role != models.MessageAI {
		t.Errorf("image message: %+v", last)
	}

	res, err = svc.Send(ctx, alice, chatsvc.SendInput{Message: "visualize growth"},
		completion.Config{Provider: p, Images: fakeImages{err: errors.New("quota")}})
	if err != nil {
		t.Fatalf("Send with failing images: %v", err)
	}
	if p.calls() != 1 || res.Response != "ok" {
		t.Errorf("expected text fallback, calls=%d response=%q", p.calls(), res.Response)
	}
}

func TestSend_GroupContextInPrompt(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	g := seedGroup(t, st, models.Membership{UserID: bob.Email, Role: models.RoleMember})
	if err := st.Groups.UpsertMemory(ctx, g.ID, models.MemoryFact{Key: "budget", Value: "40k"}, models.AuditEntry{Action: models.AuditAddMemory}); err != nil {
		t.Fatalf("UpsertMemory: %v", err)
	}
	p := &fakeProvider{}

	if _, err := svc.Send(ctx, alice, chatsvc.SendInput{GroupID: g.ID.Hex(), Message: "plan", Persona: "technical"}, cfg(p)); err != nil {
		t.Fatalf("alice Send: %v", err)
	}
	if _, err := svc.Send(ctx, bob, chatsvc.SendInput{GroupID: g.ID.Hex(), Message: "plan"}, cfg(p)); err != nil {
		t.Fatalf("bob Send: %v", err)
	}

	owner := p.requests[0].Messages[0].Content
	for _, want := range []string{"Group Name: Alpha", "Industry/Function: Logistics", `"budget"`, "CURRENT USER ROLE: OWNER", "TECHNICAL MODE", "GROUP context"} {
		if !strings.Contains(owner, want) {
			t.Errorf("owner prompt missing %q", want)
		}
	}
	if member := p.requests[1].Messages[0].Content; !strings.Contains(member, "CURRENT USER ROLE: MEMBER") {
		t.Error("member prompt should carry the member role")
	}
}

func TestDelete(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	g := seedGroup(t, st, models.Membership{UserID: bob.Email, Role: models.RoleMember})

	res, err := svc.Send(ctx, alice, chatsvc.SendInput{GroupID: g.ID.Hex(), Message: "x"}, cfg(&fakeProvider{}))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := svc.Delete(ctx, bob, res.ChatID.Hex()); err != nil {
		t.Fatalf("member delete: %v", err)
	}
	if err := svc.Delete(ctx, bob, res.ChatID.Hex()); apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("second delete: expected not found, got %v", err)
	}
}

func TestEndToEnd_GroupChatVisibleToInvitee(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	log := zap.NewNop()
	groups := groupsvc.New(st.Groups, st.Chats, log)
	invites := invitesvc.New(st.Groups, st.Users, nil, nil, invitesvc.Config{BaseURL: "https://synapse.test"}, log)
	chats := chatsvc.New(st.Chats, st.Groups, log)

	g, err := groups.Create(ctx, alice, groupsvc.CreateInput{Name: "Alpha"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m, _ := g.MemberOf(alice.Email); m.Role != models.RoleAdmin {
		t.Fatalf("creator role: %q", m.Role)
	}

	issued, err := invites.Issue(ctx, alice, invitesvc.IssueInput{GroupID: g.ID.Hex(), Method: "link", Role: "member", ExpiresDays: 7})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := invites.Redeem(ctx, bob, issued.Results[0].Token); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	after, err := groups.Get(ctx, bob, g.ID.Hex())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m, ok := after.MemberOf(bob.Email); !ok || m.Role != models.RoleMember {
		t.Fatalf("bob membership: %+v %v", m, ok)
	}

	if _, err := chats.Send(ctx, alice, chatsvc.SendInput{GroupID: g.ID.Hex(), Message: "Q1 plan?"}, cfg(&fakeProvider{})); err != nil {
		t.Fatalf("Send: %v", err)
	}
	list, err := chats.List(ctx, bob, g.ID.Hex())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, c := range list {
		if c.Title == "Q1 plan?" {
			found = true
		}
	}
	if !found {
		t.Errorf("bob does not see the group chat: %+v", list)
	}

	// Deleting the group takes its chats with it.
	if _, err := groups.Delete(ctx, alice, g.ID.Hex()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if left, _ := st.Chats.ListByGroup(ctx, g.ID); len(left) != 0 {
		t.Errorf("chats left after cascade: %d", len(left))
	}
}
