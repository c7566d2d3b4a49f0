// internal/app/services/notifications/notifysvc.go

// Package notifysvc is the notification sink: other services create inbox
// entries through Notify, and recipients list and act on their own entries.
package notifysvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/metrics"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ListLimit caps a single inbox listing.
const ListLimit = 100

// UnknownSender is shown when the sender has no directory profile.
const UnknownSender = "Unknown"

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	ListForRecipient(ctx context.Context, recipient string, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipient string, id primitive.ObjectID) (bool, error)
	MarkAllRead(ctx context.Context, recipient string) (int64, error)
	Delete(ctx context.Context, recipient string, id primitive.ObjectID) (bool, error)
	DeleteAll(ctx context.Context, recipient string) (int64, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
}

// Directory resolves sender profiles.
type Directory interface {
	Profiles(ctx context.Context, emails []string) (map[string]models.Profile, error)
}

// Action is a recipient operation on the inbox.
type Action string

const (
	ActionRead      Action = "read"
	ActionReadAll   Action = "read_all"
	ActionDelete    Action = "delete"
	ActionDeleteAll Action = "delete_all"
)

// Item is a notification enriched with its sender's profile.
type Item struct {
	models.Notification
	SenderName  string `json:"senderName"`
	SenderImage string `json:"senderImage,omitempty"`
}

// Service implements the notification operations.
type Service struct {
	store Store
	dir   Directory
	log   *zap.Logger
}

func New(store Store, dir Directory, logger *zap.Logger) *Service {
	return &Service{store: store, dir: dir, log: logger}
}

// Notify stores n for its recipient. Sender defaults to System and Type to
// system.
func (s *Service) Notify(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.Recipient = strings.TrimSpace(n.Recipient)
	if n.Recipient == "" {
		return models.Notification{}, apperr.Invalid("missing_recipient", "Recipient is required")
	}
	if n.Sender == "" {
		n.Sender = models.SystemSender
	}
	if n.Type == "" {
		n.Type = models.NotifySystem
	}
	if !n.Type.Valid() {
		return models.Notification{}, apperr.Invalid("invalid_type", "Invalid notification type")
	}
	n.ID = primitive.NilObjectID
	n.Read = false

	out, err := s.store.Create(ctx, n)
	if err != nil {
		return models.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(out.Type)).Inc()
	return out, nil
}

// List returns the recipient's inbox, newest first, along with the number of
// unread entries.
func (s *Service) List(ctx context.Context, recipient string) ([]Item, int64, error) {
	list, err := s.store.ListForRecipient(ctx, recipient, ListLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	senders := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, n := range list {
		if n.Sender == "" || n.Sender == models.SystemSender {
			continue
		}
		if _, ok := seen[n.Sender]; ok {
			continue
		}
		seen[n.Sender] = struct{}{}
		senders = append(senders, n.Sender)
	}

	profiles := map[string]models.Profile{}
	if len(senders) > 0 && s.dir != nil {
		p, err := s.dir.Profiles(ctx, senders)
		if err != nil {
			// Enrichment is cosmetic; the inbox is still served.
			s.log.Warn("sender lookup failed", zap.String("recipient", recipient), zap.Error(err))
		} else {
			profiles = p
		}
	}

	items := make([]Item, 0, len(list))
	for _, n := range list {
		it := Item{Notification: n}
		switch {
		case n.Sender == models.SystemSender:
			it.SenderName = models.SystemSender
		default:
			if p, ok := profiles[n.Sender]; ok {
				it.SenderName = p.Name
				it.SenderImage = p.Image
			} else {
				it.SenderName = UnknownSender
			}
		}
		items = append(items, it)
	}

	unread, err := s.store.CountUnread(ctx, recipient)
	if err != nil {
		return nil, 0, fmt.Errorf("count unread: %w", err)
	}
	return items, unread, nil
}

// Apply runs action for recipient. Single-entry actions only touch the
// recipient's own entries; another user's id is reported as not found.
func (s *Service) Apply(ctx context.Context, recipient string, action Action, id string) error {
	switch action {
	case ActionRead, ActionDelete:
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return apperr.NotFoundf("Notification not found")
		}
		var ok bool
		if action == ActionRead {
			ok, err = s.store.MarkRead(ctx, recipient, oid)
		} else {
			ok, err = s.store.Delete(ctx, recipient, oid)
		}
		if err != nil {
			return fmt.Errorf("%s notification: %w", action, err)
		}
		if !ok {
			return apperr.NotFoundf("Notification not found")
		}
		return nil
	case ActionReadAll:
		if _, err := s.store.MarkAllRead(ctx, recipient); err != nil {
			return fmt.Errorf("mark all read: %w", err)
		}
		return nil
	case ActionDeleteAll:
		if _, err := s.store.DeleteAll(ctx, recipient); err != nil {
			return fmt.Errorf("delete all: %w", err)
		}
		return nil
	}
	return apperr.Invalid("invalid_action", "Invalid action")
}

// UnreadCount returns how many of the recipient's entries are unread.
func (s *Service) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	n, err := s.store.CountUnread(ctx, recipient)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}
