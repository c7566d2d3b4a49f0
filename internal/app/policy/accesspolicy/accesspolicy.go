// internal/app/policy/accesspolicy/accesspolicy.go

// Package accesspolicy is the single authorization gate for group and chat
// operations. Authorize is pure: callers load the authoritative group and chat
// records immediately before asking, and act only on an Allow verdict.
package accesspolicy

import (
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
)

// Operation is the action an actor wants to perform.
type Operation int

const (
	ChatRead Operation = iota
	ChatUpdate
	ChatDelete
	ChatSend
	ChatList

	GroupRead
	GroupDelete
	GroupArchive
	GroupLeave
	SettingsUpdate
	AuditRead
	MemoryWrite
	MemoryRemove

	InviteIssue
	InviteList
	InviteManage
	RequestProcess
	RoleChange
	MemberRemove
)

func (op Operation) String() string {
	switch op {
	case ChatRead:
		return "chat.read"
	case ChatUpdate:
		return "chat.update"
	case ChatDelete:
		return "chat.delete"
	case ChatSend:
		return "chat.send"
	case ChatList:
		return "chat.list"
	case GroupRead:
		return "group.read"
	case GroupDelete:
		return "group.delete"
	case GroupArchive:
		return "group.archive"
	case GroupLeave:
		return "group.leave"
	case SettingsUpdate:
		return "group.settings"
	case AuditRead:
		return "group.audit"
	case MemoryWrite:
		return "group.memory.write"
	case MemoryRemove:
		return "group.memory.remove"
	case InviteIssue:
		return "invite.issue"
	case InviteList:
		return "invite.list"
	case InviteManage:
		return "invite.manage"
	case RequestProcess:
		return "request.process"
	case RoleChange:
		return "member.role"
	case MemberRemove:
		return "member.remove"
	}
	return "unknown"
}

// Decision is the outcome of Authorize.
type Decision int

const (
	Deny Decision = iota
	Allow
	ReadOnly
)

// Reason explains a non-Allow verdict.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonNotMember          Reason = "not_member"
	ReasonViewer             Reason = "viewer_read_only"
	ReasonNotOwner           Reason = "not_owner"
	ReasonNotAdmin           Reason = "not_admin"
	ReasonCreatorImmune      Reason = "creator_immune"
	ReasonCreatorCannotLeave Reason = "creator_cannot_leave"
	ReasonSendRestricted     Reason = "send_restricted"
	ReasonInviteRestricted   Reason = "invite_restricted"
)

// Verdict is what the gate decided and why.
type Verdict struct {
	Decision Decision
	Reason   Reason
}

// Allowed reports whether the operation may proceed.
func (v Verdict) Allowed() bool { return v.Decision == Allow }

// Resource describes what the operation targets. Group must be the chat's
// group whenever Chat is group-shared.
type Resource struct {
	Group *models.Group
	Chat  *models.Chat

	// Target and TargetRole are set for RoleChange and MemberRemove.
	Target     string
	TargetRole models.Role
}

func allow() Verdict { return Verdict{Decision: Allow} }

func deny(r Reason) Verdict { return Verdict{Decision: Deny, Reason: r} }

func readOnly(r Reason) Verdict { return Verdict{Decision: ReadOnly, Reason: r} }

// Authorize decides whether actor may perform op on res.
func Authorize(actor string, res Resource, op Operation) Verdict {
	if actor == "" {
		return deny(ReasonNotOwner)
	}
	switch op {
	case ChatRead, ChatUpdate, ChatDelete, ChatSend:
		return authorizeChat(actor, res, op)
	case ChatList:
		if res.Group == nil {
			return allow()
		}
		if _, ok := res.Group.MemberOf(actor); !ok {
			return deny(ReasonNotMember)
		}
		return allow()
	case GroupRead:
		return requireMember(actor, res.Group)
	case GroupDelete, GroupArchive, SettingsUpdate, AuditRead, MemoryRemove,
		InviteList, InviteManage, RequestProcess:
		return requireAdmin(actor, res.Group)
	case MemoryWrite:
		return requireWriter(actor, res.Group)
	case InviteIssue:
		return authorizeInvite(actor, res.Group)
	case GroupLeave:
		return authorizeLeave(actor, res.Group)
	case RoleChange:
		return authorizeRoleChange(actor, res)
	case MemberRemove:
		return authorizeRemove(actor, res)
	}
	return deny(ReasonNotAdmin)
}

func authorizeChat(actor string, res Resource, op Operation) Verdict {
	c := res.Chat

	// New chat: only sending may create one.
	if c == nil {
		if op != ChatSend {
			return deny(ReasonNotOwner)
		}
		if res.Group == nil {
			return allow()
		}
		return authorizeGroupSend(actor, res.Group)
	}

	if !c.IsGroupChat() {
		if c.UserID != actor {
			return deny(ReasonNotOwner)
		}
		return allow()
	}

	g := res.Group
	if g == nil || g.ID != *c.GroupID {
		return deny(ReasonNotMember)
	}
	m, ok := g.MemberOf(actor)
	if !ok {
		return deny(ReasonNotMember)
	}

	switch op {
	case ChatRead:
		return allow()
	case ChatUpdate:
		if !m.Role.CanWrite() {
			return readOnly(ReasonViewer)
		}
		return allow()
	case ChatDelete:
		if !m.Role.CanWrite() {
			return deny(ReasonViewer)
		}
		return allow()
	case ChatSend:
		return authorizeGroupSend(actor, g)
	}
	return deny(ReasonNotMember)
}

func authorizeGroupSend(actor string, g *models.Group) Verdict {
	m, ok := g.MemberOf(actor)
	if !ok {
		return deny(ReasonNotMember)
	}
	if !m.Role.CanWrite() {
		return deny(ReasonViewer)
	}
	if g.Settings.CanSendMessages == models.SendAdmin && !g.IsAdmin(actor) {
		return deny(ReasonSendRestricted)
	}
	return allow()
}

func authorizeInvite(actor string, g *models.Group) Verdict {
	if g == nil {
		return deny(ReasonNotAdmin)
	}
	if g.IsAdmin(actor) {
		return allow()
	}
	m, ok := g.MemberOf(actor)
	if !ok {
		return deny(ReasonNotAdmin)
	}
	if g.Settings.CanInviteMembers == models.InviteAll && m.Role.CanWrite() {
		return allow()
	}
	return deny(ReasonInviteRestricted)
}

func authorizeLeave(actor string, g *models.Group) Verdict {
	if g == nil {
		return deny(ReasonNotMember)
	}
	if g.IsCreator(actor) {
		return deny(ReasonCreatorCannotLeave)
	}
	_, member := g.MemberOf(actor)
	_, pending := g.PendingOf(actor)
	if !member && !pending {
		return deny(ReasonNotMember)
	}
	return allow()
}

// Creator immunity is checked before privilege.
func authorizeRoleChange(actor string, res Resource) Verdict {
	g := res.Group
	if g == nil {
		return deny(ReasonNotAdmin)
	}
	if g.IsCreator(res.Target) && res.TargetRole != models.RoleAdmin {
		return deny(ReasonCreatorImmune)
	}
	return requireAdmin(actor, g)
}

func authorizeRemove(actor string, res Resource) Verdict {
	g := res.Group
	if g == nil {
		return deny(ReasonNotAdmin)
	}
	if g.IsCreator(res.Target) {
		if actor == res.Target {
			return deny(ReasonCreatorCannotLeave)
		}
		return deny(ReasonCreatorImmune)
	}
	if actor == res.Target {
		return authorizeLeave(actor, g)
	}
	return requireAdmin(actor, g)
}

func requireMember(actor string, g *models.Group) Verdict {
	if g == nil {
		return deny(ReasonNotMember)
	}
	if _, ok := g.MemberOf(actor); !ok {
		return deny(ReasonNotMember)
	}
	return allow()
}

func requireWriter(actor string, g *models.Group) Verdict {
	if g == nil {
		return deny(ReasonNotMember)
	}
	m, ok := g.MemberOf(actor)
	if !ok {
		return deny(ReasonNotMember)
	}
	if !m.Role.CanWrite() {
		return deny(ReasonViewer)
	}
	return allow()
}

func requireAdmin(actor string, g *models.Group) Verdict {
	if g == nil || !g.IsAdmin(actor) {
		return deny(ReasonNotAdmin)
	}
	return allow()
}

// Err converts a non-Allow verdict into the error returned to callers.
// It returns nil for Allow.
func (v Verdict) Err() error {
	if v.Decision == Allow {
		return nil
	}
	switch v.Reason {
	case ReasonNotOwner:
		return apperr.Concealed(string(v.Reason), "Unauthorized")
	case ReasonNotMember:
		return apperr.Forbidden(string(v.Reason), "Access to group intelligence denied")
	case ReasonViewer:
		return apperr.Forbidden(string(v.Reason), "Viewers have read-only access to this group")
	case ReasonNotAdmin, ReasonInviteRestricted:
		return apperr.Forbidden(string(v.Reason), "Forbidden: Admin access required")
	case ReasonSendRestricted:
		return apperr.Forbidden(string(v.Reason), "Only admins may send messages in this group")
	case ReasonCreatorImmune:
		return apperr.Invalid(string(v.Reason), "Cannot demote or remove the group creator")
	case ReasonCreatorCannotLeave:
		return apperr.Invalid(string(v.Reason), "The group creator cannot leave the group. Delete it instead.")
	case ReasonNone:
		return apperr.Forbidden("forbidden", "Forbidden")
	}
	return apperr.Forbidden(string(v.Reason), "Forbidden")
}
