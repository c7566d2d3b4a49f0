// internal/app/store/contacts/contactstore.go
package contactstore

import (
	"context"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatusNew is the status of an unread submission.
const StatusNew = "new"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contacts")}
}

func (s *Store) Create(ctx context.Context, c models.Contact) (models.Contact, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Status == "" {
		c.Status = StatusNew
	}
	c.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Contact{}, err
	}
	return c, nil
}
