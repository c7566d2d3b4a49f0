package userstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/normalize"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MinSearchLen is the shortest query Search will run.
const MinSearchLen = 2

// SearchLimit caps directory search results.
const SearchLimit = 10

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errEmailRequired  = errors.New("email is required")
)

var profileProjection = bson.M{"_id": 1, "name": 1, "image": 1}

// GetByEmail looks up a user by normalized email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": normalize.Email(email)}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Upsert records a successful sign-in: it creates the profile on first use
// and refreshes name, image and last login afterwards.
func (s *Store) Upsert(ctx context.Context, email, name, image string) (models.User, error) {
	email = normalize.Email(email)
	if email == "" {
		return models.User{}, errEmailRequired
	}
	name = normalize.Name(name)
	now := time.Now().UTC()

	set := bson.M{"last_login": now, "updated_at": now}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if image != "" {
		set["image"] = image
	}
	setOnInsert := bson.M{"created_at": now}
	if name == "" {
		fallback := models.DisplayName(email, "")
		setOnInsert["name"] = fallback
		setOnInsert["name_ci"] = text.Fold(fallback)
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": email},
		bson.M{"$set": set, "$setOnInsert": setOnInsert}, opts).Decode(&u)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Create inserts a credentials user. The email must be unused.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.Email = normalize.Email(u.Email)
	if u.Email == "" {
		return models.User{}, errEmailRequired
	}
	u.Name = normalize.Name(u.Name)
	if u.Name == "" {
		u.Name = models.DisplayName(u.Email, "")
	}
	u.NameCI = text.Fold(u.Name)
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// SetPassword stores a password hash for an existing user.
func (s *Store) SetPassword(ctx context.Context, email, hash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": normalize.Email(email)}, bson.M{
		"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// FindByName resolves a handle to a user by exact case-insensitive name.
func (s *Store) FindByName(ctx context.Context, handle string) (models.User, error) {
	folded := text.Fold(normalize.Name(normalize.Handle(handle)))
	if folded == "" {
		return models.User{}, mongo.ErrNoDocuments
	}
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"name_ci": folded}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Search matches q case-insensitively against name or email. Queries
// shorter than MinSearchLen return no results.
func (s *Store) Search(ctx context.Context, q string) ([]models.Profile, error) {
	q = normalize.QueryParam(q)
	if len([]rune(q)) < MinSearchLen {
		return []models.Profile{}, nil
	}
	pattern := primitiveRegex(q)
	filter := bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"_id": pattern},
	}}
	opts := options.Find().
		SetProjection(profileProjection).
		SetLimit(SearchLimit).
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Profile{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Profiles returns the public profiles for emails, keyed by email.
// Unknown emails are absent from the map.
func (s *Store) Profiles(ctx context.Context, emails []string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(emails))
	if len(emails) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": emails}}, options.Find().SetProjection(profileProjection))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p models.Profile
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.Email] = p
	}
	return out, cur.Err()
}

func primitiveRegex(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}
