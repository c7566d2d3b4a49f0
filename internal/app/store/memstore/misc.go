package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/oauthstate"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contacts keeps contact-form submissions.
type Contacts struct {
	mu   sync.Mutex
	data []models.Contact
}

func NewContacts() *Contacts { return &Contacts{} }

func (s *Contacts) Create(_ context.Context, c models.Contact) (models.Contact, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Status == "" {
		c.Status = "new"
	}
	c.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.data = append(s.data, c)
	s.mu.Unlock()
	return c, nil
}

// All returns a copy of every stored submission.
func (s *Contacts) All() []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Contact{}, s.data...)
}

type oauthEntry struct {
	rd        oauthstate.Redirect
	expiresAt time.Time
}

// OAuthStates holds one-time OAuth state tokens.
type OAuthStates struct {
	mu   sync.Mutex
	data map[string]oauthEntry
}

func NewOAuthStates() *OAuthStates {
	return &OAuthStates{data: make(map[string]oauthEntry)}
}

func (s *OAuthStates) Save(_ context.Context, state string, rd oauthstate.Redirect, expiresAt time.Time) error {
	s.mu.Lock()
	s.data[state] = oauthEntry{rd: rd, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *OAuthStates) Consume(_ context.Context, state string) (oauthstate.Redirect, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[state]
	if !ok {
		return oauthstate.Redirect{}, false, nil
	}
	delete(s.data, state)
	if !time.Now().UTC().Before(e.expiresAt) {
		return oauthstate.Redirect{}, false, nil
	}
	return e.rd, true, nil
}

func (s *OAuthStates) CleanupExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for k, e := range s.data {
		if e.expiresAt.Before(now) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}
