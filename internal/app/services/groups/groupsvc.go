// internal/app/services/groups/groupsvc.go

// Package groupsvc is the group registry: creation, membership administration,
// settings, memory facts and the cascade on deletion. Every mutation re-reads
// the group, asks accesspolicy, and only then writes.
package groupsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/policy/accesspolicy"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auditlog"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/limits"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/normalize"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the group persistence the registry needs.
type Store interface {
	Create(ctx context.Context, g models.Group) (models.Group, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
	ListForMember(ctx context.Context, userID string) ([]models.Group, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	UpdateMemberRole(ctx context.Context, id primitive.ObjectID, userID string, role models.Role, entry models.AuditEntry) (bool, error)
	RemoveMember(ctx context.Context, id primitive.ObjectID, userID string, entry models.AuditEntry) (bool, error)
	ApplyPatch(ctx context.Context, id primitive.ObjectID, p models.GroupPatch, entry models.AuditEntry) (bool, error)
	SetArchived(ctx context.Context, id primitive.ObjectID, archived bool, entry models.AuditEntry) (bool, error)
	UpsertMemory(ctx context.Context, id primitive.ObjectID, fact models.MemoryFact, entry models.AuditEntry) error
	RemoveMemory(ctx context.Context, id primitive.ObjectID, key string, entry models.AuditEntry) (bool, error)
}

// ChatCascade removes the chats that belong to a group.
type ChatCascade interface {
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error)
}

// Service implements the group registry.
type Service struct {
	groups   Store
	chats    ChatCascade
	log      *zap.Logger
	auditLog *auditlog.Logger
	now      func() time.Time
}

func New(groups Store, chats ChatCascade, logger *zap.Logger) *Service {
	return &Service{
		groups: groups,
		chats:  chats,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithAuditLog records refused operations to l.
func (s *Service) WithAuditLog(l *auditlog.Logger) *Service {
	s.auditLog = l
	return s
}

// authorize asks accesspolicy about op on g and records a refusal.
func (s *Service) authorize(actor models.Actor, g *models.Group, res accesspolicy.Resource, op accesspolicy.Operation) accesspolicy.Verdict {
	res.Group = g
	v := accesspolicy.Authorize(actor.Email, res, op)
	if !v.Allowed() {
		s.auditLog.Denied(op.String(), actor.Email, g.ID, res.Target, string(v.Reason))
	}
	return v
}

var errGroupNotFound = apperr.NotFoundf("Group not found")

// Load returns the group with the hex id. A malformed id is reported as not
// found.
func (s *Service) Load(ctx context.Context, id string) (models.Group, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return models.Group{}, errGroupNotFound
	}
	g, err := s.groups.GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Group{}, errGroupNotFound
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("load group %s: %w", oid.Hex(), err)
	}
	return g, nil
}

func (s *Service) audit(actor models.Actor, action, target, details string) models.AuditEntry {
	return models.AuditEntry{
		Action:      action,
		PerformedBy: actor.Email,
		Target:      target,
		Details:     details,
		Timestamp:   s.now(),
	}
}

func (s *Service) storeErr(op string, actor string, id primitive.ObjectID, err error) error {
	s.log.Error("group store failure",
		zap.String("op", op),
		zap.String("actor", actor),
		zap.String("group_id", id.Hex()),
		zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

// CreateInput carries the fields of a new group.
type CreateInput struct {
	Name         string
	Description  string
	Industry     string
	Type         string
	InviteMethod string
	Settings     *models.GroupSettings
}

// Create makes a group whose only member is the actor, as admin.
func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (models.Group, error) {
	name := normalize.Name(in.Name)
	if name == "" {
		return models.Group{}, apperr.Invalid("missing_name", "Group name is required")
	}

	gt := models.GroupPrivate
	if t := strings.TrimSpace(in.Type); t != "" {
		gt = models.GroupType(strings.ToLower(t))
		if !gt.Valid() {
			return models.Group{}, apperr.Invalid("invalid_type", "Invalid group type")
		}
	}
	method := models.InviteByLink
	if m := strings.TrimSpace(in.InviteMethod); m != "" {
		method = models.InviteMethod(strings.ToLower(m))
		if !method.Valid() {
			return models.Group{}, apperr.Invalid("invalid_invite_method", "Invalid invite method")
		}
	}
	settings := models.DefaultSettings()
	if in.Settings != nil {
		settings = in.Settings.Normalized()
	}

	now := s.now()
	g := models.Group{
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Industry:     strings.TrimSpace(in.Industry),
		Type:         gt,
		InviteMethod: method,
		Settings:     settings,
		CreatedBy:    actor.Email,
		Members: []models.Membership{{
			UserID:   actor.Email,
			UserName: actor.DisplayName(),
			Role:     models.RoleAdmin,
			JoinedAt: now,
		}},
		AuditLog: []models.AuditEntry{s.audit(actor, models.AuditCreateGroup, name, "Created group")},
	}

	out, err := s.groups.Create(ctx, g)
	if err != nil {
		s.log.Error("create group failed", zap.String("actor", actor.Email), zap.Error(err))
		return models.Group{}, fmt.Errorf("create group: %w", err)
	}
	return out, nil
}

// Get returns the group to a member. Invites and the audit ledger are only
// included for admins.
func (s *Service) Get(ctx context.Context, actor models.Actor, groupID string) (models.Group, error) {
	g, err := s.Load(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.GroupRead).Err(); err != nil {
		return models.Group{}, err
	}
	if !g.IsAdmin(actor.Email) {
		g.Invites = nil
		g.AuditLog = nil
	}
	return g, nil
}

// ListForUser returns the non-archived groups userID belongs to, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	list, err := s.groups.ListForMember(ctx, userID)
	if err != nil {
		s.log.Error("list groups failed", zap.String("actor", userID), zap.Error(err))
		return nil, fmt.Errorf("list groups: %w", err)
	}
	for i := range list {
		if !list[i].IsAdmin(userID) {
			list[i].Invites = nil
			list[i].AuditLog = nil
		}
	}
	return list, nil
}

// Delete removes the group's chats, then the group. A failure after chats
// were removed is returned, not swallowed.
func (s *Service) Delete(ctx context.Context, actor models.Actor, groupID string) (int64, error) {
	g, err := s.Load(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.GroupDelete).Err(); err != nil {
		return 0, err
	}

	removed, err := s.chats.DeleteByGroup(ctx, g.ID)
	if err != nil {
		return 0, s.storeErr("delete group chats", actor.Email, g.ID, err)
	}
	n, err := s.groups.Delete(ctx, g.ID)
	if err != nil {
		s.log.Error("group delete failed after chat cascade",
			zap.String("actor", actor.Email),
			zap.String("group_id", g.ID.Hex()),
			zap.Int64("chats_removed", removed),
			zap.Error(err))
		return removed, fmt.Errorf("delete group: %w", err)
	}
	if n == 0 {
		return removed, errGroupNotFound
	}
	s.log.Info("group deleted",
		zap.String("actor", actor.Email),
		zap.String("group_id", g.ID.Hex()),
		zap.Int64("chats_removed", removed))
	return removed, nil
}

// UpdateMemberRole sets target's role. The creator can never leave admin.
func (s *Service) UpdateMemberRole(ctx context.Context, actor models.Actor, groupID, target, role string) error {
	target = normalize.Email(target)
	if target == "" || strings.TrimSpace(role) == "" {
		return apperr.Invalid("missing_fields", "User ID and role are required")
	}
	newRole, err := models.ParseRole(role)
	if err != nil {
		return apperr.Invalid("invalid_role", "Invalid role")
	}

	g, err := s.Load(ctx, groupID)
	if err != nil {
		return err
	}
	v := s.authorize(actor, &g, accesspolicy.Resource{Target: target, TargetRole: newRole}, accesspolicy.RoleChange)
	if v.Reason == accesspolicy.ReasonCreatorImmune {
		return apperr.Invalid(string(v.Reason), "Cannot demote the group creator")
	}
	if err := v.Err(); err != nil {
		return err
	}
	if _, ok := g.MemberOf(target); !ok {
		return apperr.NotFoundf("Member not found")
	}

	entry := s.audit(actor, models.AuditUpdateRole, target, fmt.Sprintf("Changed role to %s", newRole))
	ok, err := s.groups.UpdateMemberRole(ctx, g.ID, target, newRole, entry)
	if err != nil {
		return s.storeErr("update member role", actor.Email, g.ID, err)
	}
	if !ok {
		return apperr.NotFoundf("Member not found")
	}
	return nil
}

// RemoveMember drops target from members and pending requests. Removing
// oneself is leaving the group. It returns the remaining members.
func (s *Service) RemoveMember(ctx context.Context, actor models.Actor, groupID, target string) ([]models.Membership, error) {
	target = normalize.Email(target)
	if target == "" {
		return nil, apperr.Invalid("missing_user", "User ID to remove is required")
	}

	g, err := s.Load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{Target: target}, accesspolicy.MemberRemove).Err(); err != nil {
		return nil, err
	}
	_, member := g.MemberOf(target)
	_, pending := g.PendingOf(target)
	if !member && !pending {
		return nil, apperr.NotFoundf("Member not found")
	}

	action, details := models.AuditRemoveMember, "Removed user from group"
	if target == actor.Email {
		action, details = models.AuditLeaveGroup, "Left the group"
	}
	ok, err := s.groups.RemoveMember(ctx, g.ID, target, s.audit(actor, action, target, details))
	if err != nil {
		return nil, s.storeErr("remove member", actor.Email, g.ID, err)
	}
	if !ok {
		return nil, apperr.NotFoundf("Member not found")
	}

	remaining := make([]models.Membership, 0, len(g.Members))
	for _, m := range g.Members {
		if m.UserID != target {
			remaining = append(remaining, m)
		}
	}
	return remaining, nil
}

// SettingsInput carries the optional fields of a settings update.
type SettingsInput struct {
	Name         *string
	Description  *string
	Industry     *string
	Type         *string
	InviteMethod *string
	Settings     *models.GroupSettings
}

func (in SettingsInput) patch() (models.GroupPatch, error) {
	var p models.GroupPatch
	if in.Name != nil {
		name := normalize.Name(*in.Name)
		if name == "" {
			return p, apperr.Invalid("missing_name", "Group name is required")
		}
		p.Name = &name
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		p.Description = &d
	}
	if in.Industry != nil {
		ind := strings.TrimSpace(*in.Industry)
		p.Industry = &ind
	}
	if in.Type != nil {
		t := models.GroupType(strings.ToLower(strings.TrimSpace(*in.Type)))
		if !t.Valid() {
			return p, apperr.Invalid("invalid_type", "Invalid group type")
		}
		p.Type = &t
	}
	if in.InviteMethod != nil {
		m := models.InviteMethod(strings.ToLower(strings.TrimSpace(*in.InviteMethod)))
		if !m.Valid() {
			return p, apperr.Invalid("invalid_invite_method", "Invalid invite method")
		}
		p.InviteMethod = &m
	}
	if in.Settings != nil {
		st := in.Settings.Normalized()
		p.Settings = &st
	}
	return p, nil
}

// UpdateSettings patches the group's descriptive fields and settings.
func (s *Service) UpdateSettings(ctx context.Context, actor models.Actor, groupID string, in SettingsInput) (models.Group, error) {
	p, err := in.patch()
	if err != nil {
		return models.Group{}, err
	}
	if p.Empty() {
		return models.Group{}, apperr.Invalid("no_changes", "No changes supplied")
	}

	g, err := s.Load(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.SettingsUpdate).Err(); err != nil {
		return models.Group{}, err
	}

	ok, err := s.groups.ApplyPatch(ctx, g.ID, p, s.audit(actor, models.AuditUpdateSettings, "", "Updated group settings"))
	if err != nil {
		return models.Group{}, s.storeErr("update settings", actor.Email, g.ID, err)
	}
	if !ok {
		return models.Group{}, errGroupNotFound
	}
	return s.Load(ctx, g.ID.Hex())
}

// SetArchived archives or restores the group.
func (s *Service) SetArchived(ctx context.Context, actor models.Actor, groupID string, archived bool) error {
	g, err := s.Load(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.GroupArchive).Err(); err != nil {
		return err
	}
	details := "Archived group"
	if !archived {
		details = "Restored group"
	}
	ok, err := s.groups.SetArchived(ctx, g.ID, archived, s.audit(actor, models.AuditArchiveGroup, "", details))
	if err != nil {
		return s.storeErr("set archived", actor.Email, g.ID, err)
	}
	if !ok {
		return errGroupNotFound
	}
	return nil
}

// AddMemory records a context fact, replacing any fact with the same key.
func (s *Service) AddMemory(ctx context.Context, actor models.Actor, groupID, key string, value any) (models.MemoryFact, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.MemoryFact{}, apperr.Invalid("missing_key", "Memory key is required")
	}
	if value == nil {
		return models.MemoryFact{}, apperr.Invalid("missing_value", "Memory value is required")
	}

	g, err := s.Load(ctx, groupID)
	if err != nil {
		return models.MemoryFact{}, err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.MemoryWrite).Err(); err != nil {
		return models.MemoryFact{}, err
	}
	exists := false
	for _, f := range g.Memory {
		if f.Key == key {
			exists = true
			break
		}
	}
	if !exists && len(g.Memory) >= limits.MaxMemoryFacts {
		return models.MemoryFact{}, apperr.Invalid("memory_full", "Group memory is full")
	}

	fact := models.MemoryFact{Key: key, Value: value, Timestamp: s.now()}
	if err := s.groups.UpsertMemory(ctx, g.ID, fact, s.audit(actor, models.AuditAddMemory, key, "Stored memory fact")); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.MemoryFact{}, errGroupNotFound
		}
		return models.MemoryFact{}, s.storeErr("add memory", actor.Email, g.ID, err)
	}
	return fact, nil
}

// RemoveMemory deletes the fact stored under key.
func (s *Service) RemoveMemory(ctx context.Context, actor models.Actor, groupID, key string) error {
	key = strings.TrimSpace(key)
	g, err := s.Load(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.MemoryRemove).Err(); err != nil {
		return err
	}
	ok, err := s.groups.RemoveMemory(ctx, g.ID, key, s.audit(actor, models.AuditRemoveMemory, key, "Removed memory fact"))
	if err != nil {
		return s.storeErr("remove memory", actor.Email, g.ID, err)
	}
	if !ok {
		return apperr.NotFoundf("Memory fact not found")
	}
	return nil
}

// AuditLog returns a copy of the group's ledger, oldest first.
func (s *Service) AuditLog(ctx context.Context, actor models.Actor, groupID string) ([]models.AuditEntry, error) {
	g, err := s.Load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.AuditRead).Err(); err != nil {
		return nil, err
	}
	return append([]models.AuditEntry{}, g.AuditLog...), nil
}
