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

// Chats is the in-memory chat store.
type Chats struct {
	mu   sync.RWMutex
	data map[primitive.ObjectID]*models.Chat
}

func NewChats() *Chats {
	return &Chats{data: make(map[primitive.ObjectID]*models.Chat)}
}

func cloneChat(c *models.Chat) models.Chat {
	out := *c
	if c.GroupID != nil {
		gid := *c.GroupID
		out.GroupID = &gid
	}
	out.Messages = append([]models.Message{}, c.Messages...)
	return out
}

func summarize(c *models.Chat) models.ChatSummary {
	s := models.ChatSummary{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
	if c.GroupID != nil {
		gid := *c.GroupID
		s.GroupID = &gid
	}
	return s
}

func (s *Chats) GetByID(_ context.Context, id primitive.ObjectID) (models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data[id]
	if !ok {
		return models.Chat{}, mongo.ErrNoDocuments
	}
	return cloneChat(c), nil
}

func (s *Chats) Create(_ context.Context, c models.Chat) (models.Chat, error) {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	stored := cloneChat(&c)

	s.mu.Lock()
	s.data[c.ID] = &stored
	s.mu.Unlock()
	return cloneChat(&stored), nil
}

func (s *Chats) AppendMessages(_ context.Context, id primitive.ObjectID, msgs ...models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	c.Messages = append(c.Messages, msgs...)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Chats) ReplaceMessages(_ context.Context, id primitive.ObjectID, msgs []models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	c.Messages = append([]models.Message{}, msgs...)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Chats) ListPersonal(_ context.Context, userID string) ([]models.ChatSummary, error) {
	return s.list(func(c *models.Chat) bool {
		return c.UserID == userID && !c.IsGroupChat()
	}), nil
}

func (s *Chats) ListByGroup(_ context.Context, groupID primitive.ObjectID) ([]models.ChatSummary, error) {
	return s.list(func(c *models.Chat) bool {
		return c.IsGroupChat() && *c.GroupID == groupID
	}), nil
}

func (s *Chats) list(match func(*models.Chat) bool) []models.ChatSummary {
	s.mu.RLock()
	out := []models.ChatSummary{}
	for _, c := range s.data {
		if match(c) {
			out = append(out, summarize(c))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (s *Chats) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return 0, nil
	}
	delete(s.data, id)
	return 1, nil
}

func (s *Chats) DeleteByGroup(_ context.Context, groupID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, c := range s.data {
		if c.IsGroupChat() && *c.GroupID == groupID {
			delete(s.data, id)
			n++
		}
	}
	return n, nil
}
