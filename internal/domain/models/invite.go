// internal/domain/models/invite.go
package models

import (
	"errors"
	"fmt"
	"time"
)

// InviteMethod is how an invite token is delivered.
type InviteMethod string

const (
	InviteByLink     InviteMethod = "link"
	InviteByEmail    InviteMethod = "email"
	InviteByUsername InviteMethod = "username"
)

func (m InviteMethod) Valid() bool {
	switch m {
	case InviteByLink, InviteByEmail, InviteByUsername:
		return true
	}
	return false
}

// SingleUse reports whether one redemption consumes the invite.
// Link invites are shared and stay usable until cancelled or expired.
func (m InviteMethod) SingleUse() bool {
	switch m {
	case InviteByEmail, InviteByUsername:
		return true
	case InviteByLink:
		return false
	}
	return false
}

// InviteStatus is the lifecycle state recorded on an invite.
type InviteStatus string

const (
	InviteSent            InviteStatus = "sent"
	InvitePendingApproval InviteStatus = "pending_approval"
	InviteJoined          InviteStatus = "joined"
	InviteExpired         InviteStatus = "expired"
	InviteCancelled       InviteStatus = "cancelled"
	InviteDenied          InviteStatus = "denied"
)

func (s InviteStatus) Valid() bool {
	switch s {
	case InviteSent, InvitePendingApproval, InviteJoined, InviteExpired, InviteCancelled, InviteDenied:
		return true
	}
	return false
}

// InviteEvent drives NextInviteStatus.
type InviteEvent string

const (
	EventJoin    InviteEvent = "join"
	EventQueue   InviteEvent = "queue"
	EventApprove InviteEvent = "approve"
	EventReject  InviteEvent = "reject"
	EventCancel  InviteEvent = "cancel"
	EventResend  InviteEvent = "resend"
	EventExpire  InviteEvent = "expire"
)

var (
	ErrInviteInactive   = errors.New("invite is no longer active")
	ErrInviteExpired    = errors.New("invite has expired")
	ErrInviteRedeemed   = errors.New("invite has already been used")
	ErrInviteTransition = errors.New("invalid invite transition")
)

// Invite is a redeemable token embedded in a group document.
type Invite struct {
	Token     string       `bson:"token" json:"token"`
	Method    InviteMethod `bson:"method" json:"method"`
	Recipient string       `bson:"recipient,omitempty" json:"recipient,omitempty"`
	Role      Role         `bson:"role" json:"role"`
	Status    InviteStatus `bson:"status" json:"status"`
	InvitedBy string       `bson:"invited_by" json:"invitedBy"`
	ExpiresAt time.Time    `bson:"expires_at" json:"expiresAt"`
	IsActive  bool         `bson:"is_active" json:"isActive"`
	CreatedAt time.Time    `bson:"created_at" json:"createdAt"`
}

// InviteUpdate is the new state written to one invite.
type InviteUpdate struct {
	Status    InviteStatus
	Active    bool
	ExpiresAt *time.Time
}

// GrantedRole is the role a redemption grants, defaulting to member.
func (inv Invite) GrantedRole() Role {
	if inv.Role.Valid() {
		return inv.Role
	}
	return RoleMember
}

// Redeemable reports why the invite cannot be redeemed at now, or nil.
// The active flag is checked before expiry, and expiry is checked even when active.
func (inv Invite) Redeemable(now time.Time) error {
	if !inv.IsActive {
		return ErrInviteInactive
	}
	if now.After(inv.ExpiresAt) {
		return ErrInviteExpired
	}
	switch inv.Status {
	case InviteSent:
		return nil
	case InviteJoined, InvitePendingApproval:
		if inv.Method.SingleUse() {
			return ErrInviteRedeemed
		}
		return nil
	case InviteDenied:
		if inv.Method.SingleUse() {
			return ErrInviteInactive
		}
		return nil
	case InviteCancelled:
		return ErrInviteInactive
	case InviteExpired:
		return ErrInviteExpired
	}
	return fmt.Errorf("%w: unknown status %q", ErrInviteTransition, inv.Status)
}

// NextInviteStatus applies ev to cur. Every (status, event) pair is listed;
// anything not listed is rejected with ErrInviteTransition.
func NextInviteStatus(cur InviteStatus, ev InviteEvent) (InviteStatus, error) {
	bad := func() (InviteStatus, error) {
		return cur, fmt.Errorf("%w: %s on %s", ErrInviteTransition, ev, cur)
	}
	switch cur {
	case InviteSent:
		switch ev {
		case EventJoin:
			return InviteJoined, nil
		case EventQueue:
			return InvitePendingApproval, nil
		case EventCancel:
			return InviteCancelled, nil
		case EventResend:
			return InviteSent, nil
		case EventExpire:
			return InviteExpired, nil
		case EventApprove, EventReject:
			return bad()
		}
	case InvitePendingApproval:
		switch ev {
		case EventApprove:
			return InviteJoined, nil
		case EventReject:
			return InviteDenied, nil
		case EventCancel:
			return InviteCancelled, nil
		case EventExpire:
			return InviteExpired, nil
		case EventJoin:
			return InviteJoined, nil
		case EventQueue:
			// shared links keep collecting redemptions
			return cur, nil
		case EventResend:
			return bad()
		}
	case InviteJoined:
		switch ev {
		case EventJoin:
			return InviteJoined, nil
		case EventQueue:
			return InvitePendingApproval, nil
		case EventApprove:
			return InviteJoined, nil
		case EventReject:
			return InviteDenied, nil
		case EventCancel:
			return InviteCancelled, nil
		case EventExpire:
			return InviteExpired, nil
		case EventResend:
			return InviteSent, nil
		}
	case InviteCancelled, InviteExpired, InviteDenied:
		switch ev {
		case EventResend:
			return InviteSent, nil
		case EventCancel:
			return InviteCancelled, nil
		case EventExpire:
			if cur == InviteCancelled {
				return cur, nil
			}
			return InviteExpired, nil
		case EventJoin, EventQueue:
			// denied link invites stay open to other redeemers
			if cur == InviteDenied {
				if ev == EventJoin {
					return InviteJoined, nil
				}
				return InvitePendingApproval, nil
			}
			return bad()
		case EventApprove, EventReject:
			return bad()
		}
	}
	return bad()
}
