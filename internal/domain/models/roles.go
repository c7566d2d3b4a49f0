// internal/domain/models/roles.go
package models

import (
	"fmt"
	"strings"
)

// Role is a membership role within a single group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// CanWrite reports whether the role may send or mutate group chat state.
func (r Role) CanWrite() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	case RoleViewer:
		return false
	}
	return false
}

// ParseRole normalizes s and returns the matching Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

// GroupType controls discoverability of a group.
type GroupType string

const (
	GroupPublic  GroupType = "public"
	GroupPrivate GroupType = "private"
)

func (t GroupType) Valid() bool {
	switch t {
	case GroupPublic, GroupPrivate:
		return true
	}
	return false
}

// SendPolicy decides who may post into group chats.
type SendPolicy string

const (
	SendAll   SendPolicy = "all"
	SendAdmin SendPolicy = "admin"
)

func (p SendPolicy) Valid() bool {
	switch p {
	case SendAll, SendAdmin:
		return true
	}
	return false
}

// InvitePolicy decides who may issue invites.
type InvitePolicy string

const (
	InviteAll   InvitePolicy = "all"
	InviteAdmin InvitePolicy = "admin"
)

func (p InvitePolicy) Valid() bool {
	switch p {
	case InviteAll, InviteAdmin:
		return true
	}
	return false
}

// MessageRole identifies the author kind of a chat message.
type MessageRole string

const (
	MessageUser     MessageRole = "user"
	MessageAI       MessageRole = "ai"
	MessageTool     MessageRole = "tool"
	MessageSystem   MessageRole = "system"
	MessageFunction MessageRole = "function"
)

func (m MessageRole) Valid() bool {
	switch m {
	case MessageUser, MessageAI, MessageTool, MessageSystem, MessageFunction:
		return true
	}
	return false
}

// NotificationType classifies an inbox entry.
type NotificationType string

const (
	NotifyInvite  NotificationType = "invite"
	NotifySystem  NotificationType = "system"
	NotifyMessage NotificationType = "message"
)

func (n NotificationType) Valid() bool {
	switch n {
	case NotifyInvite, NotifySystem, NotifyMessage:
		return true
	}
	return false
}
