// internal/app/system/indexes/indexes.go

// Package indexes reconciles the MongoDB indexes every collection needs.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names shared with the stores.
const (
	Users         = "users"
	Groups        = "groups"
	Chats         = "chats"
	Notifications = "notifications"
	OAuthStates   = "oauth_states"
	Contacts      = "contacts"
)

/*
EnsureAll is called at startup. Each collection set is idempotent: indexes
that already match are reused, ones whose options drifted are rebuilt.
Errors are aggregated so every problem is visible at once.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string
	for _, name := range []string{Users, Groups, Chats, Notifications, OAuthStates, Contacts} {
		if err := ensureIndexSet(ctx, db.Collection(name), Set(name), logger); err != nil {
			problems = append(problems, name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Set returns the desired indexes for a collection.
func Set(collection string) []mongo.IndexModel {
	switch collection {
	case Users:
		// _id is the email, so uniqueness needs no extra index.
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "name_ci", Value: 1}}, Options: options.Index().SetName("idx_users_name_ci")},
		}
	case Groups:
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "invites.token", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true).SetName("idx_groups_invite_token"),
			},
			{
				Keys:    bson.D{{Key: "members.user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_groups_member_created"),
			},
		}
	case Chats:
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
				Options: options.Index().SetName("idx_chats_user_updated"),
			},
			{
				Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "updated_at", Value: -1}},
				Options: options.Index().SetName("idx_chats_group_updated"),
			},
		}
	case Notifications:
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_notifications_recipient_created"),
			},
		}
	case OAuthStates:
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "state", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_oauth_state"),
			},
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl"),
			},
		}
	case Contacts:
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_contacts_status_created"),
			},
		}
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile one collection                                                   */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             *bool  `bson:"unique,omitempty"`
	Sparse             *bool  `bson:"sparse,omitempty"`
	ExpireAfterSeconds *int32 `bson:"expireAfterSeconds,omitempty"`
}

type desired struct {
	name   string
	sig    string
	unique bool
	sparse bool
	ttl    *int32
}

func describe(m mongo.IndexModel) desired {
	d := desired{sig: keySig(m.Keys.(bson.D))}
	if o := m.Options; o != nil {
		if o.Name != nil {
			d.name = *o.Name
		}
		d.unique = o.Unique != nil && *o.Unique
		d.sparse = o.Sparse != nil && *o.Sparse
		d.ttl = o.ExpireAfterSeconds
	}
	return d
}

func (d desired) matches(ex existingIndex) bool {
	if d.unique != (ex.Unique != nil && *ex.Unique) || d.sparse != (ex.Sparse != nil && *ex.Sparse) {
		return false
	}
	switch {
	case d.ttl == nil && ex.ExpireAfterSeconds == nil:
		return true
	case d.ttl == nil || ex.ExpireAfterSeconds == nil:
		return false
	}
	return *d.ttl == *ex.ExpireAfterSeconds
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection, log *zap.Logger) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			log.Warn("failed to decode existing index", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, log *zap.Logger) error {
	existing, err := listExisting(ctx, coll, log)
	if err != nil {
		// A collection that does not exist yet lists as an error on some servers.
		log.Debug("list indexes failed", zap.String("collection", coll.Name()), zap.Error(err))
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		d := describe(m)
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
		}

		if ex, ok := existing[d.sig]; ok {
			if d.matches(ex) && (d.name == "" || ex.Name == d.name) {
				log.Debug("reusing existing index", fields...)
				continue
			}
			// Options or name drifted: drop and rebuild.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", append(fields, zap.String("existing", ex.Name), zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), d.name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && d.unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), d.name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err))
			}
			log.Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		log.Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
