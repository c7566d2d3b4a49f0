// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// State is a one-time OAuth2 state token stored for CSRF protection.
type State struct {
	State       string    `bson:"state"`
	ReturnURL   string    `bson:"return_url,omitempty"`
	InviteToken string    `bson:"invite_token,omitempty"` // invite to redeem once signed in
	ExpiresAt   time.Time `bson:"expires_at"`
	CreatedAt   time.Time `bson:"created_at"`
}

// Redirect is what a validated state carries back to the callback.
type Redirect struct {
	ReturnURL   string
	InviteToken string
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}


// Save stores a state token until expiresAt.
func (s *Store) Save(ctx context.Context, state string, rd Redirect, expiresAt time.Time) error {
	st := State{
		State:       state,
		ReturnURL:   rd.ReturnURL,
		InviteToken: rd.InviteToken,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, st)
	return err
}

// Consume deletes an unexpired state token and returns what it carried.
// A missing or expired token yields valid=false and no error.
func (s *Store) Consume(ctx context.Context, state string) (rd Redirect, valid bool, err error) {
	var st State
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)

	if err == mongo.ErrNoDocuments {
		return Redirect{}, false, nil
	}
	if err != nil {
		return Redirect{}, false, err
	}
	return Redirect{ReturnURL: st.ReturnURL, InviteToken: st.InviteToken}, true, nil
}

// CleanupExpired removes expired state tokens. The TTL monitor only runs
// once a minute, so the cleanup worker calls this as well.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
