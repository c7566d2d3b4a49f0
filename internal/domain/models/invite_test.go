package models_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
)

func TestRedeemable_ExpiredEvenWhenActive(t *testing.T) {
	now := time.Now()
	inv := models.Invite{
		Method:    models.InviteByLink,
		Status:    models.InviteSent,
		IsActive:  true,
		ExpiresAt: now.Add(-time.Second),
	}
	if err := inv.Redeemable(now); !errors.Is(err, models.ErrInviteExpired) {
		t.Fatalf("expected ErrInviteExpired, got %v", err)
	}
}

func TestRedeemable_InactiveBeforeExpiry(t *testing.T) {
	now := time.Now()
	inv := models.Invite{
		Method:    models.InviteByLink,
		Status:    models.InviteCancelled,
		IsActive:  false,
		ExpiresAt: now.Add(-time.Hour),
	}
	if err := inv.Redeemable(now); !errors.Is(err, models.ErrInviteInactive) {
		t.Fatalf("expected ErrInviteInactive, got %v", err)
	}
}

func TestRedeemable_LinkReusableAfterJoin(t *testing.T) {
	now := time.Now()
	inv := models.Invite{
		Method:    models.InviteByLink,
		Status:    models.InviteJoined,
		IsActive:  true,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := inv.Redeemable(now); err != nil {
		t.Fatalf("link invite should stay redeemable, got %v", err)
	}
}

func TestRedeemable_EmailSingleUse(t *testing.T) {
	now := time.Now()
	inv := models.Invite{
		Method:    models.InviteByEmail,
		Status:    models.InviteJoined,
		IsActive:  true,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := inv.Redeemable(now); !errors.Is(err, models.ErrInviteRedeemed) {
		t.Fatalf("expected ErrInviteRedeemed, got %v", err)
	}
}

func TestNextInviteStatus_Table(t *testing.T) {
	tests := []struct {
		cur     models.InviteStatus
		ev      models.InviteEvent
		want    models.InviteStatus
		wantErr bool
	}{
		{models.InviteSent, models.EventJoin, models.InviteJoined, false},
		{models.InviteSent, models.EventQueue, models.InvitePendingApproval, false},
		{models.InviteSent, models.EventCancel, models.InviteCancelled, false},
		{models.InviteSent, models.EventExpire, models.InviteExpired, false},
		{models.InviteSent, models.EventApprove, models.InviteSent, true},
		{models.InvitePendingApproval, models.EventApprove, models.InviteJoined, false},
		{models.InvitePendingApproval, models.EventReject, models.InviteDenied, false},
		{models.InvitePendingApproval, models.EventResend, models.InvitePendingApproval, true},
		{models.InviteCancelled, models.EventResend, models.InviteSent, false},
		{models.InviteExpired, models.EventResend, models.InviteSent, false},
		{models.InviteDenied, models.EventResend, models.InviteSent, false},
		{models.InviteCancelled, models.EventJoin, models.InviteCancelled, true},
		{models.InviteCancelled, models.EventApprove, models.InviteCancelled, true},
	}

	for _, tc := range tests {
		got, err := models.NextInviteStatus(tc.cur, tc.ev)
		if tc.wantErr {
			if !errors.Is(err, models.ErrInviteTransition) {
				t.Errorf("%s on %s: expected ErrInviteTransition, got %v", tc.ev, tc.cur, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s on %s: unexpected error %v", tc.ev, tc.cur, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s on %s: got %q, want %q", tc.ev, tc.cur, got, tc.want)
		}
	}
}

func TestGrantedRole_DefaultsToMember(t *testing.T) {
	if got := (models.Invite{}).GrantedRole(); got != models.RoleMember {
		t.Errorf("GrantedRole: got %q, want member", got)
	}
	if got := (models.Invite{Role: models.RoleViewer}).GrantedRole(); got != models.RoleViewer {
		t.Errorf("GrantedRole: got %q, want viewer", got)
	}
}
