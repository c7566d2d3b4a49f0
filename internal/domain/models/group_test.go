package models_test

import (
	"strings"
	"testing"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
)

func TestGroup_IsAdmin(t *testing.T) {
	g := &models.Group{
		CreatedBy: "owner@test.com",
		Members: []models.Membership{
			{UserID: "owner@test.com", Role: models.RoleAdmin},
			{UserID: "admin@test.com", Role: models.RoleAdmin},
			{UserID: "member@test.com", Role: models.RoleMember},
		},
	}

	if !g.IsAdmin("owner@test.com") {
		t.Error("creator should be admin")
	}
	if !g.IsAdmin("admin@test.com") {
		t.Error("admin member should be admin")
	}
	if g.IsAdmin("member@test.com") {
		t.Error("plain member should not be admin")
	}
	if g.IsAdmin("stranger@test.com") {
		t.Error("non-member should not be admin")
	}
	if g.IsCreator("") {
		t.Error("empty id must never match the creator")
	}
}

func TestDisplayName(t *testing.T) {
	if got := models.DisplayName("ada@example.com", ""); got != "ada" {
		t.Errorf("DisplayName: got %q, want %q", got, "ada")
	}
	if got := models.DisplayName("ada@example.com", "  Ada L "); got != "Ada L" {
		t.Errorf("DisplayName: got %q, want %q", got, "Ada L")
	}
}

func TestChatTitle(t *testing.T) {
	if got := models.ChatTitle("Hello"); got != "Hello" {
		t.Errorf("short title: got %q", got)
	}
	if got := models.ChatTitle(""); got != models.DefaultChatTitle {
		t.Errorf("empty title: got %q", got)
	}

	long := strings.Repeat("a", 45)
	got := models.ChatTitle(long)
	if got != strings.Repeat("a", 30)+"..." {
		t.Errorf("long title: got %q", got)
	}

	exact := strings.Repeat("b", 30)
	if got := models.ChatTitle(exact); got != exact {
		t.Errorf("30-char title should not be truncated, got %q", got)
	}
}

func TestParseRole(t *testing.T) {
	r, err := models.ParseRole(" Viewer ")
	if err != nil || r != models.RoleViewer {
		t.Fatalf("ParseRole: got %q, %v", r, err)
	}
	if _, err := models.ParseRole("owner"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestSettingsNormalized(t *testing.T) {
	s := models.GroupSettings{ApprovalRequired: true}.Normalized()
	if !s.ApprovalRequired {
		t.Error("ApprovalRequired should be preserved")
	}
	if s.CanSendMessages != models.SendAll || s.CanInviteMembers != models.InviteAdmin {
		t.Errorf("policy defaults not applied: %+v", s)
	}
	if len(s.AdminPowers) != 3 {
		t.Errorf("admin powers default: got %v", s.AdminPowers)
	}
}
