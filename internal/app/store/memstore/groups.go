// Package memstore is an in-process implementation of the document stores.
// Each conditional update holds the write lock for the whole
// check-and-mutate, matching the single-document atomicity of the Mongo
// stores. Values are copied on the way in and out so callers never share
// slices with the store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Groups is the in-memory group store.
type Groups struct {
	mu   sync.RWMutex
	data map[primitive.ObjectID]*models.Group
}

func NewGroups() *Groups {
	return &Groups{data: make(map[primitive.ObjectID]*models.Group)}
}

func cloneGroup(g *models.Group) models.Group {
	out := *g
	out.Settings.AdminPowers = append([]string{}, g.Settings.AdminPowers...)
	out.Members = append([]models.Membership{}, g.Members...)
	out.PendingMembers = append([]models.PendingMembership{}, g.PendingMembers...)
	out.Invites = append([]models.Invite{}, g.Invites...)
	out.AuditLog = append([]models.AuditEntry{}, g.AuditLog...)
	out.Memory = append([]models.MemoryFact{}, g.Memory...)
	return out
}

func (s *Groups) GetByID(_ context.Context, id primitive.ObjectID) (models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.data[id]
	if !ok {
		return models.Group{}, mongo.ErrNoDocuments
	}
	return cloneGroup(g), nil
}

func (s *Groups) GetByInviteToken(_ context.Context, token string) (models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.data {
		if _, ok := g.InviteByToken(token); ok {
			return cloneGroup(g), nil
		}
	}
	return models.Group{}, mongo.ErrNoDocuments
}

func (s *Groups) Create(_ context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	stored := cloneGroup(&g)

	s.mu.Lock()
	s.data[g.ID] = &stored
	s.mu.Unlock()
	return cloneGroup(&stored), nil
}

func (s *Groups) ListForMember(_ context.Context, userID string) ([]models.Group, error) {
	s.mu.RLock()
	out := []models.Group{}
	for _, g := range s.data {
		if g.IsArchived {
			continue
		}
		if _, ok := g.MemberOf(userID); ok {
			out = append(out, cloneGroup(g))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Groups) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return 0, nil
	}
	delete(s.data, id)
	return 1, nil
}

// update runs fn on the stored group under the write lock. fn reports
// whether its guard matched; a missing group never matches.
func (s *Groups) update(id primitive.ObjectID, fn func(g *models.Group) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.data[id]
	if !ok {
		return false
	}
	if !fn(g) {
		return false
	}
	g.UpdatedAt = time.Now().UTC()
	return true
}

func setInviteStatus(g *models.Group, token string, status models.InviteStatus) {
	for i := range g.Invites {
		if g.Invites[i].Token == token {
			g.Invites[i].Status = status
		}
	}
}

func (s *Groups) PushInvites(_ context.Context, id primitive.ObjectID, invites []models.Invite, entry models.AuditEntry) error {
	if len(invites) == 0 {
		return nil
	}
	ok := s.update(id, func(g *models.Group) bool {
		g.Invites = append(g.Invites, invites...)
		g.AuditLog = append(g.AuditLog, entry)
		return true
	})
	if !ok {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Groups) AddMember(_ context.Context, id primitive.ObjectID, m models.Membership, token string, status models.InviteStatus, entry *models.AuditEntry) (bool, error) {
	return s.update(id, func(g *models.Group) bool {
		if _, exists := g.MemberOf(m.UserID); exists {
			return false
		}
		g.Members = append(g.Members, m)
		pullPending(g, m.UserID)
		if entry != nil {
			g.AuditLog = append(g.AuditLog, *entry)
		}
		if token != "" {
			setInviteStatus(g, token, status)
		}
		return true
	}), nil
}

func (s *Groups) AddPending(_ context.Context, id primitive.ObjectID, p models.PendingMembership) (bool, error) {
	return s.update(id, func(g *models.Group) bool {
		if _, exists := g.MemberOf(p.UserID); exists {
			return false
		}
		if _, exists := g.PendingOf(p.UserID); exists {
			return false
		}
		g.PendingMembers = append(g.PendingMembers, p)
		if p.InviteToken != "" {
			setInviteStatus(g, p.InviteToken, models.InvitePendingApproval)
		}
		return true
	}), nil
}

func pullPending(g *models.Group, userID string) {
	kept := g.PendingMembers[:0]
	for _, p := range g.PendingMembers {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	g.PendingMembers = kept
}

func (s *Groups) ApprovePending(_ context.Context, id primitive.ObjectID, m models.Membership, token string, entry models.AuditEntry) (bool, error) {
	return s.update(id, func(g *models.Group) bool {
		if _, pending := g.PendingOf(m.UserID); !pending {
			return false
		}
		if _, exists := g.MemberOf(m.UserID); exists {
			return false
		}
		pullPending(g, m.UserID)
		g.Members = append(g.Members, m)
		g.AuditLog = append(g.AuditLog, entry)
		if token != "" {
			setInviteStatus(g, token, models.InviteJoined)
		}
		return true
	}), nil
}

func (s *Groups) RejectPending(_ context.Context, id primitive.ObjectID, userID, token string, deactivate bool, entry models.AuditEntry) (bool, error) {
	return s.update(id, func(g *models.Group) bool {
		if _, pending := g.PendingOf(userID); !pending {
			return false
		}
		pullPending(g, userID)
		g.AuditLog = append(g.AuditLog, entry)
		if token != "" {
			for i := range g.Invites {
				if g.Invites[i].Token == token {
					g.Invites[i].Status = models.InviteDenied
					if deactivate {
						g.Invites[i].IsActive = false
					}
				}
			}
		}
		return true
	}), nil
}

func (s *Groups) PullPending(_ context.Context, id primitive.ObjectID, userID string) error {
	s.update(id, func(g *models.Group) bool {
		pullPending(g, userID)
		return true
	})
	return nil
}

func (s *Groups) SetInviteState(_ context.Context, id primitive.ObjectID, token string, u models.InviteUpdate, entry *models.AuditEntry) (bool, error) {
	return s.update(id, func(g *models.Group) bool {
		for i := range g.Invites {
			if g.Invites[i].Token != token {
				continue
			}
			g.Invites[i].Status = u.Status
			g.Invites[i].IsActive = u.Active
			if u.ExpiresAt != nil {
				g.Invites[i].ExpiresAt = *u.ExpiresAt
			}
			if entry != nil {
				g.AuditLog = append(g.AuditLog, *entry)
			}
			return true
		}
		return false
	}), nil
}

func (s *Groups) UpdateMemberRole(_ context.Context, id primitive.ObjectID, userID string, role models.Role, entry models.AuditEntry) (bool, error) {
	return s.update(id, func(g *models.Group) bool {
		for i := range g.Members {
			if g.Members[i].UserID == userID {
				g.Members[i].Role = role
				g.AuditLog = append(g.AuditLog, entry)
				return true
			}
		}
		return false
	}), nil
}

func (s *Groups) RemoveMember(_ context.Context, id primitive.ObjectID, userID string, entry models.AuditEntry) (bool, error) {
	return s.update(id, func(g *models.Group) bool {
		_, member := g.MemberOf(userID)
		_, pending := g.PendingOf(userID)
		if !member && !pending {
			return false
		}
		kept := g.Members[:0]
		for _, m := range g.Members {
			if m.UserID != userID {
				kept = append(kept, m)
			}
		}
		g.Members = kept
		pullPending(g, userID)
		g.AuditLog = append(g.AuditLog, entry)
		return true
	}), nil
}

func (s *Groups) ApplyPatch(_ context.Context, id primitive.ObjectID, p models.GroupPatch, entry models.AuditEntry) (bool, error) {
	return s.update(id, func(g *models.Group) bool {
		if p.Name != nil {
			g.Name = *p.Name
		}
		if p.Description != nil {
			g.Description = *p.Description
		}
		if p.Industry != nil {
			g.Industry = *p.Industry
		}
		if p.Type != nil {
			g.Type = *p.Type
		}
		if p.InviteMethod != nil {
			g.InviteMethod = *p.InviteMethod
		}
		if p.Settings != nil {
			g.Settings = *p.Settings
			g.Settings.AdminPowers = append([]string{}, p.Settings.AdminPowers...)
		}
		g.AuditLog = append(g.AuditLog, entry)
		return true
	}), nil
}

func (s *Groups) SetArchived(_ context.Context, id primitive.ObjectID, archived bool, entry models.AuditEntry) (bool, error) {
	return s.update(id, func(g *models.Group) bool {
		g.IsArchived = archived
		g.AuditLog = append(g.AuditLog, entry)
		return true
	}), nil
}

func (s *Groups) UpsertMemory(_ context.Context, id primitive.ObjectID, fact models.MemoryFact, entry models.AuditEntry) error {
	ok := s.update(id, func(g *models.Group) bool {
		g.AuditLog = append(g.AuditLog, entry)
		for i := range g.Memory {
			if g.Memory[i].Key == fact.Key {
				g.Memory[i].Value = fact.Value
				g.Memory[i].Timestamp = fact.Timestamp
				return true
			}
		}
		g.Memory = append(g.Memory, fact)
		return true
	})
	if !ok {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Groups) RemoveMemory(_ context.Context, id primitive.ObjectID, key string, entry models.AuditEntry) (bool, error) {
	return s.update(id, func(g *models.Group) bool {
		for i := range g.Memory {
			if g.Memory[i].Key == key {
				g.Memory = append(g.Memory[:i], g.Memory[i+1:]...)
				g.AuditLog = append(g.AuditLog, entry)
				return true
			}
		}
		return false
	}), nil
}
