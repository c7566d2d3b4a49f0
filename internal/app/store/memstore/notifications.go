package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifications is the in-memory inbox store.
type Notifications struct {
	mu   sync.RWMutex
	data map[primitive.ObjectID]*models.Notification
}

func NewNotifications() *Notifications {
	return &Notifications{data: make(map[primitive.ObjectID]*models.Notification)}
}

func cloneNotification(n *models.Notification) models.Notification {
	out := *n
	if n.Metadata != nil {
		out.Metadata = make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func (s *Notifications) Create(_ context.Context, n models.Notification) (models.Notification, error) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	stored := cloneNotification(&n)

	s.mu.Lock()
	s.data[n.ID] = &stored
	s.mu.Unlock()
	return cloneNotification(&stored), nil
}

func (s *Notifications) ListForRecipient(_ context.Context, recipient string, limit int64) ([]models.Notification, error) {
	s.mu.RLock()
	out := []models.Notification{}
	for _, n := range s.data {
		if n.Recipient == recipient {
			out = append(out, cloneNotification(n))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Notifications) MarkRead(_ context.Context, recipient string, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.data[id]
	if !ok || n.Recipient != recipient {
		return false, nil
	}
	n.Read = true
	return true, nil
}

func (s *Notifications) MarkAllRead(_ context.Context, recipient string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.data {
		if n.Recipient == recipient && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (s *Notifications) Delete(_ context.Context, recipient string, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.data[id]
	if !ok || n.Recipient != recipient {
		return false, nil
	}
	delete(s.data, id)
	return true, nil
}

func (s *Notifications) DeleteAll(_ context.Context, recipient string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for id, n := range s.data {
		if n.Recipient == recipient {
			delete(s.data, id)
			count++
		}
	}
	return count, nil
}

func (s *Notifications) CountUnread(_ context.Context, recipient string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.data {
		if n.Recipient == recipient && !n.Read {
			count++
		}
	}
	return count, nil
}
