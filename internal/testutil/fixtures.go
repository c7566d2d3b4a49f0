package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a directory profile.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		Email:     email,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// Member is a shorthand for a membership entry.
type Member struct {
	Email string
	Role  models.Role
}

// CreateGroup inserts a group created by creator (as admin) together with
// the given extra members.
func (f *Fixtures) CreateGroup(ctx context.Context, name, creator string, members ...Member) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := NewGroup(name, creator, members...)
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// NewGroup builds an unsaved group with creator as admin.
func NewGroup(name, creator string, members ...Member) models.Group {
	now := time.Now().UTC()
	g := models.Group{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Type:         models.GroupPrivate,
		InviteMethod: models.InviteByLink,
		Settings:     models.DefaultSettings(),
		CreatedBy:    creator,
		Members: []models.Membership{{
			UserID: creator, UserName: models.DisplayName(creator, ""), Role: models.RoleAdmin, JoinedAt: now,
		}},
		PendingMembers: []models.PendingMembership{},
		Invites:        []models.Invite{},
		AuditLog:       []models.AuditEntry{},
		Memory:         []models.MemoryFact{},
	}
	for _, m := range members {
		g.Members = append(g.Members, models.Membership{
			UserID: m.Email, UserName: models.DisplayName(m.Email, ""), Role: m.Role, JoinedAt: now,
		})
	}
	return g
}

// CreateChat inserts a chat. groupID may be nil for a personal chat.
func (f *Fixtures) CreateChat(ctx context.Context, owner string, groupID *primitive.ObjectID, title string, msgs ...models.Message) models.Chat {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Chat{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		Title:     title,
		Messages:  append([]models.Message{}, msgs...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if groupID == nil {
		c.UserID = owner
	}
	if _, err := f.db.Collection("chats").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test chat: %v", err)
	}
	return c
}
