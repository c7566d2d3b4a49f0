// internal/app/store/chats/chatstore.go
package chatstore

import (
	"context"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("chats")}
}

var summaryProjection = bson.M{"_id": 1, "title": 1, "group_id": 1, "created_at": 1, "updated_at": 1}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Chat, error) {
	var c models.Chat
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Chat{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.Chat) (models.Chat, error) {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Messages == nil {
		c.Messages = []models.Message{}
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Chat{}, err
	}
	return c, nil
}

// AppendMessages pushes msgs onto the chat in one update. Concurrent
// appends never overwrite each other.
func (s *Store) AppendMessages(ctx context.Context, id primitive.ObjectID, msgs ...models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"messages": bson.M{"$each": msgs}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ReplaceMessages overwrites the full message list.
func (s *Store) ReplaceMessages(ctx context.Context, id primitive.ObjectID, msgs []models.Message) error {
	if msgs == nil {
		msgs = []models.Message{}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"messages": msgs, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListPersonal returns the user's chats that are not shared with any group.
func (s *Store) ListPersonal(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	return s.list(ctx, bson.M{"user_id": userID, "group_id": bson.M{"$exists": false}})
}

// ListByGroup returns every chat shared with groupID.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.ChatSummary, error) {
	return s.list(ctx, bson.M{"group_id": groupID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.ChatSummary, error) {
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ChatSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByGroup removes all chats shared with groupID.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
