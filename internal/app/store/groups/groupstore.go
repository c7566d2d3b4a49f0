// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists groups. Membership, pending, invite, audit and memory
// changes are single-document updates; conditional updates report whether
// the guard matched instead of returning an error.
type Store struct {
	c *mongo.Collection
}

var ErrDuplicateInviteToken = errors.New("invite token already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetByInviteToken returns the group owning token. Tokens are globally unique.
func (s *Store) GetByInviteToken(ctx context.Context, token string) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"invites.token": token}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Members == nil {
		g.Members = []models.Membership{}
	}
	if g.PendingMembers == nil {
		g.PendingMembers = []models.PendingMembership{}
	}
	if g.Invites == nil {
		g.Invites = []models.Invite{}
	}
	if g.AuditLog == nil {
		g.AuditLog = []models.AuditEntry{}
	}
	if g.Memory == nil {
		g.Memory = []models.MemoryFact{}
	}
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// ListForMember returns non-archived groups where userID is a member,
// newest first.
func (s *Store) ListForMember(ctx context.Context, userID string) ([]models.Group, error) {
	filter := bson.M{
		"members.user_id": userID,
		"is_archived":     bson.M{"$ne": true},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Group{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// PushInvites appends the whole batch in one update.
func (s *Store) PushInvites(ctx context.Context, id primitive.ObjectID, invites []models.Invite, entry models.AuditEntry) error {
	if len(invites) == 0 {
		return nil
	}
	update := bson.M{
		"$push": bson.M{
			"invites":   bson.M{"$each": invites},
			"audit_log": entry,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateInviteToken
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func inviteFilter(token string) *options.UpdateOptions {
	return options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"inv.token": token}},
	})
}

// AddMember pushes m only if m.UserID is not already a member, dropping any
// pending entry for the same user. When token is set, that invite's status
// becomes status in the same update.
func (s *Store) AddMember(ctx context.Context, id primitive.ObjectID, m models.Membership, token string, status models.InviteStatus, entry *models.AuditEntry) (bool, error) {
	filter := bson.M{"_id": id, "members.user_id": bson.M{"$ne": m.UserID}}
	push := bson.M{"members": m}
	if entry != nil {
		push["audit_log"] = *entry
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	opts := options.Update()
	if token != "" {
		set["invites.$[inv].status"] = status
		opts = inviteFilter(token)
	}

	update := bson.M{
		"$pull": bson.M{"pending_members": bson.M{"user_id": m.UserID}},
		"$push": push,
		"$set":  set,
	}

	res, err := s.c.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// AddPending queues p unless the user is already a member or pending.
func (s *Store) AddPending(ctx context.Context, id primitive.ObjectID, p models.PendingMembership) (bool, error) {
	filter := bson.M{
		"_id":                     id,
		"members.user_id":         bson.M{"$ne": p.UserID},
		"pending_members.user_id": bson.M{"$ne": p.UserID},
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	opts := options.Update()
	if p.InviteToken != "" {
		set["invites.$[inv].status"] = models.InvitePendingApproval
		opts = inviteFilter(p.InviteToken)
	}

	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"pending_members": p}, "$set": set}, opts)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ApprovePending moves userID's pending entry into members as m. It matches
// only while the pending entry exists and the user is not yet a member.
func (s *Store) ApprovePending(ctx context.Context, id primitive.ObjectID, m models.Membership, token string, entry models.AuditEntry) (bool, error) {
	filter := bson.M{
		"_id":                     id,
		"pending_members.user_id": m.UserID,
		"members.user_id":         bson.M{"$ne": m.UserID},
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	opts := options.Update()
	if token != "" {
		set["invites.$[inv].status"] = models.InviteJoined
		opts = inviteFilter(token)
	}
	update := bson.M{
		"$pull": bson.M{"pending_members": bson.M{"user_id": m.UserID}},
		"$push": bson.M{"members": m, "audit_log": entry},
		"$set":  set,
	}

	res, err := s.c.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// RejectPending drops userID's pending entry and marks its invite denied.
// deactivate also clears the invite's active flag.
func (s *Store) RejectPending(ctx context.Context, id primitive.ObjectID, userID, token string, deactivate bool, entry models.AuditEntry) (bool, error) {
	filter := bson.M{"_id": id, "pending_members.user_id": userID}
	set := bson.M{"updated_at": time.Now().UTC()}
	opts := options.Update()
	if token != "" {
		set["invites.$[inv].status"] = models.InviteDenied
		if deactivate {
			set["invites.$[inv].is_active"] = false
		}
		opts = inviteFilter(token)
	}
	update := bson.M{
		"$pull": bson.M{"pending_members": bson.M{"user_id": userID}},
		"$push": bson.M{"audit_log": entry},
		"$set":  set,
	}

	res, err := s.c.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// PullPending drops a pending entry without touching its invite.
func (s *Store) PullPending(ctx context.Context, id primitive.ObjectID, userID string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"pending_members": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// SetInviteState rewrites the invite carrying token. entry is optional.
func (s *Store) SetInviteState(ctx context.Context, id primitive.ObjectID, token string, u models.InviteUpdate, entry *models.AuditEntry) (bool, error) {
	set := bson.M{
		"invites.$.status":    u.Status,
		"invites.$.is_active": u.Active,
		"updated_at":          time.Now().UTC(),
	}
	if u.ExpiresAt != nil {
		set["invites.$.expires_at"] = *u.ExpiresAt
	}
	update := bson.M{"$set": set}
	if entry != nil {
		update["$push"] = bson.M{"audit_log": *entry}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "invites.token": token}, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// UpdateMemberRole sets the role of an existing member.
func (s *Store) UpdateMemberRole(ctx context.Context, id primitive.ObjectID, userID string, role models.Role, entry models.AuditEntry) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "members.user_id": userID},
		bson.M{
			"$set":  bson.M{"members.$.role": role, "updated_at": time.Now().UTC()},
			"$push": bson.M{"audit_log": entry},
		})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// RemoveMember pulls userID from both members and pending members.
func (s *Store) RemoveMember(ctx context.Context, id primitive.ObjectID, userID string, entry models.AuditEntry) (bool, error) {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"members.user_id": userID},
			bson.M{"pending_members.user_id": userID},
		},
	}
	update := bson.M{
		"$pull": bson.M{
			"members":         bson.M{"user_id": userID},
			"pending_members": bson.M{"user_id": userID},
		},
		"$push": bson.M{"audit_log": entry},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ApplyPatch sets the non-nil fields of p.
func (s *Store) ApplyPatch(ctx context.Context, id primitive.ObjectID, p models.GroupPatch, entry models.AuditEntry) (bool, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Industry != nil {
		set["industry"] = *p.Industry
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.InviteMethod != nil {
		set["invite_method"] = *p.InviteMethod
	}
	if p.Settings != nil {
		set["settings"] = *p.Settings
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set, "$push": bson.M{"audit_log": entry}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// SetArchived toggles the archived flag.
func (s *Store) SetArchived(ctx context.Context, id primitive.ObjectID, archived bool, entry models.AuditEntry) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":  bson.M{"is_archived": archived, "updated_at": time.Now().UTC()},
		"$push": bson.M{"audit_log": entry},
	})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// UpsertMemory replaces the fact with the same key, or appends it. Returns
// mongo.ErrNoDocuments if the group does not exist.
func (s *Store) UpsertMemory(ctx context.Context, id primitive.ObjectID, fact models.MemoryFact, entry models.AuditEntry) error {
	// Two rounds cover losing a race with a concurrent insert of the same key.
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": id, "memory.key": fact.Key},
			bson.M{
				"$set": bson.M{
					"memory.$.value":     fact.Value,
					"memory.$.timestamp": fact.Timestamp,
					"updated_at":         now,
				},
				"$push": bson.M{"audit_log": entry},
			})
		if err != nil {
			return err
		}
		if res.MatchedCount > 0 {
			return nil
		}

		res, err = s.c.UpdateOne(ctx,
			bson.M{"_id": id, "memory.key": bson.M{"$ne": fact.Key}},
			bson.M{
				"$push": bson.M{"memory": fact, "audit_log": entry},
				"$set":  bson.M{"updated_at": now},
			})
		if err != nil {
			return err
		}
		if res.MatchedCount > 0 {
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

// RemoveMemory pulls the fact with key.
func (s *Store) RemoveMemory(ctx context.Context, id primitive.ObjectID, key string, entry models.AuditEntry) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "memory.key": key},
		bson.M{
			"$pull": bson.M{"memory": bson.M{"key": key}},
			"$push": bson.M{"audit_log": entry},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
