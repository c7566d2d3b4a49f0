// internal/domain/models/group.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit actions recorded on a group's ledger.
const (
	AuditCreateGroup    = "CREATE_GROUP"
	AuditUpdateRole     = "UPDATE_ROLE"
	AuditRemoveMember   = "REMOVE_MEMBER"
	AuditLeaveGroup     = "LEAVE_GROUP"
	AuditApproveMember  = "APPROVE_MEMBER"
	AuditRejectMember   = "REJECT_MEMBER"
	AuditIssueInvite    = "ISSUE_INVITE"
	AuditCancelInvite   = "CANCEL_INVITE"
	AuditResendInvite   = "RESEND_INVITE"
	AuditUpdateSettings = "UPDATE_SETTINGS"
	AuditAddMemory      = "ADD_MEMORY"
	AuditRemoveMemory   = "REMOVE_MEMORY"
	AuditArchiveGroup   = "ARCHIVE_GROUP"
)

// Group is a shared workspace. Membership, pending requests, invites, the
// audit ledger and memory facts are embedded so that every mutation targets
// a single document.
type Group struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Industry     string             `bson:"industry,omitempty" json:"industry,omitempty"`
	Type         GroupType          `bson:"type" json:"type"`
	InviteMethod InviteMethod       `bson:"invite_method" json:"inviteMethod"`
	Settings     GroupSettings      `bson:"settings" json:"settings"`
	CreatedBy    string             `bson:"created_by" json:"createdBy"`

	Members        []Membership        `bson:"members" json:"members"`
	PendingMembers []PendingMembership `bson:"pending_members" json:"pendingMembers"`
	Invites        []Invite            `bson:"invites" json:"invites,omitempty"`
	AuditLog       []AuditEntry        `bson:"audit_log" json:"auditLog,omitempty"`
	Memory         []MemoryFact        `bson:"memory" json:"memory"`

	IsArchived bool      `bson:"is_archived" json:"isArchived"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// GroupSettings holds the per-group permission knobs.
type GroupSettings struct {
	ApprovalRequired bool         `bson:"approval_required" json:"approvalRequired"`
	CanSendMessages  SendPolicy   `bson:"can_send_messages" json:"canSendMessages"`
	CanInviteMembers InvitePolicy `bson:"can_invite_members" json:"canInviteMembers"`
	AdminPowers      []string     `bson:"admin_powers" json:"adminPowers"`
}

// DefaultSettings returns the settings a new group starts with.
func DefaultSettings() GroupSettings {
	return GroupSettings{
		ApprovalRequired: false,
		CanSendMessages:  SendAll,
		CanInviteMembers: InviteAdmin,
		AdminPowers:      []string{"remove", "assign", "mute"},
	}
}

// Normalized fills blank or unknown policy values with defaults.
func (s GroupSettings) Normalized() GroupSettings {
	d := DefaultSettings()
	if !s.CanSendMessages.Valid() {
		s.CanSendMessages = d.CanSendMessages
	}
	if !s.CanInviteMembers.Valid() {
		s.CanInviteMembers = d.CanInviteMembers
	}
	if s.AdminPowers == nil {
		s.AdminPowers = d.AdminPowers
	}
	return s
}

// Membership is a current member of a group. DisplayName is a snapshot
// taken when the membership was created.
type Membership struct {
	UserID   string    `bson:"user_id" json:"userId"`
	UserName string    `bson:"user_name" json:"userName"`
	Role     Role      `bson:"role" json:"role"`
	JoinedAt time.Time `bson:"joined_at" json:"joinedAt"`
}

// PendingMembership is a redeemed invite awaiting admin approval.
type PendingMembership struct {
	UserID      string    `bson:"user_id" json:"userId"`
	UserName    string    `bson:"user_name" json:"userName"`
	Role        Role      `bson:"role" json:"role"`
	InviteToken string    `bson:"invite_token,omitempty" json:"-"`
	RequestedAt time.Time `bson:"requested_at" json:"requestedAt"`
}

// AuditEntry is one immutable line in the group ledger.
type AuditEntry struct {
	Action      string    `bson:"action" json:"action"`
	PerformedBy string    `bson:"performed_by" json:"performedBy"`
	Target      string    `bson:"target,omitempty" json:"target,omitempty"`
	Details     string    `bson:"details,omitempty" json:"details,omitempty"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}

// MemoryFact is a group-level context fact fed to the assistant.
type MemoryFact struct {
	Key       string    `bson:"key" json:"key"`
	Value     any       `bson:"value" json:"value"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// MemberOf returns the membership for userID, if any.
func (g *Group) MemberOf(userID string) (Membership, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Membership{}, false
}

// PendingOf returns the pending request for userID, if any.
func (g *Group) PendingOf(userID string) (PendingMembership, bool) {
	for _, p := range g.PendingMembers {
		if p.UserID == userID {
			return p, true
		}
	}
	return PendingMembership{}, false
}

// InviteByToken returns the embedded invite carrying token.
func (g *Group) InviteByToken(token string) (Invite, bool) {
	for _, inv := range g.Invites {
		if inv.Token == token {
			return inv, true
		}
	}
	return Invite{}, false
}

// IsCreator reports whether userID created the group.
func (g *Group) IsCreator(userID string) bool {
	return userID != "" && g.CreatedBy == userID
}

// IsAdmin reports whether userID is the creator or holds the admin role.
func (g *Group) IsAdmin(userID string) bool {
	if g.IsCreator(userID) {
		return true
	}
	m, ok := g.MemberOf(userID)
	return ok && m.Role == RoleAdmin
}

// DisplayName picks a snapshot name for an actor: the profile name, or the
// local part of the email.
func DisplayName(email, name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// GroupPatch carries the optional fields of a settings update. Nil fields are
// left unchanged.
type GroupPatch struct {
	Name         *string
	Description  *string
	Industry     *string
	Type         *GroupType
	InviteMethod *InviteMethod
	Settings     *GroupSettings
}

// Empty reports whether the patch changes nothing.
func (p GroupPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Industry == nil &&
		p.Type == nil && p.InviteMethod == nil && p.Settings == nil
}
