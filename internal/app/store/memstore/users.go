package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	userstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/users"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/normalize"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/mongo"
)

// Users is the in-memory user directory.
type Users struct {
	mu   sync.RWMutex
	data map[string]*models.User
}

func NewUsers() *Users {
	return &Users{data: make(map[string]*models.User)}
}

func (s *Users) GetByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.data[normalize.Email(email)]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return *u, nil
}

func (s *Users) Upsert(_ context.Context, email, name, image string) (models.User, error) {
	email = normalize.Email(email)
	if email == "" {
		return models.User{}, errors.New("email is required")
	}
	name = normalize.Name(name)
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[email]
	if !ok {
		u = &models.User{Email: email, Name: models.DisplayName(email, ""), CreatedAt: now}
		s.data[email] = u
	}
	if name != "" {
		u.Name = name
	}
	u.NameCI = text.Fold(u.Name)
	if image != "" {
		u.Image = image
	}
	u.LastLogin = now
	u.UpdatedAt = now
	return *u, nil
}

func (s *Users) Create(_ context.Context, u models.User) (models.User, error) {
	u.Email = normalize.Email(u.Email)
	if u.Email == "" {
		return models.User{}, errors.New("email is required")
	}
	u.Name = normalize.Name(u.Name)
	if u.Name == "" {
		u.Name = models.DisplayName(u.Email, "")
	}
	u.NameCI = text.Fold(u.Name)
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[u.Email]; exists {
		return models.User{}, userstore.ErrDuplicateEmail
	}
	stored := u
	s.data[u.Email] = &stored
	return u, nil
}

func (s *Users) SetPassword(_ context.Context, email, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[normalize.Email(email)]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Users) FindByName(_ context.Context, handle string) (models.User, error) {
	folded := text.Fold(normalize.Name(normalize.Handle(handle)))
	if folded == "" {
		return models.User{}, mongo.ErrNoDocuments
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.data {
		if u.NameCI == folded {
			return *u, nil
		}
	}
	return models.User{}, mongo.ErrNoDocuments
}

func (s *Users) Search(_ context.Context, q string) ([]models.Profile, error) {
	q = strings.ToLower(normalize.QueryParam(q))
	out := []models.Profile{}
	if len([]rune(q)) < userstore.MinSearchLen {
		return out, nil
	}

	s.mu.RLock()
	for _, u := range s.data {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			out = append(out, u.Profile())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		ni, nj := text.Fold(out[i].Name), text.Fold(out[j].Name)
		if ni == nj {
			return out[i].Email < out[j].Email
		}
		return ni < nj
	})
	if len(out) > userstore.SearchLimit {
		out = out[:userstore.SearchLimit]
	}
	return out, nil
}

func (s *Users) Profiles(_ context.Context, emails []string) (map[string]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Profile, len(emails))
	for _, e := range emails {
		if u, ok := s.data[e]; ok {
			out[e] = u.Profile()
		}
	}
	return out, nil
}

// FetchUser implements auth.UserFetcher.
func (s *Users) FetchUser(ctx context.Context, email string) *auth.SessionUser {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}
	return &auth.SessionUser{Email: u.Email, Name: u.Name, Image: u.Image}
}
