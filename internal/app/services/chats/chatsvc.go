// internal/app/services/chats/chatsvc.go

// Package chatsvc owns chat sessions: personal and group-shared threads,
// their ordered message history, and the send flow that round-trips a message
// through the completion provider.
package chatsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/policy/accesspolicy"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auditlog"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the chat persistence the service needs.
type Store interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Chat, error)
	Create(ctx context.Context, c models.Chat) (models.Chat, error)
	AppendMessages(ctx context.Context, id primitive.ObjectID, msgs ...models.Message) error
	ReplaceMessages(ctx context.Context, id primitive.ObjectID, msgs []models.Message) error
	ListPersonal(ctx context.Context, userID string) ([]models.ChatSummary, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.ChatSummary, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// GroupReader loads the group a chat belongs to.
type GroupReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
}

// Service implements chat sessions.
type Service struct {
	chats    Store
	groups   GroupReader
	log      *zap.Logger
	auditLog *auditlog.Logger
	now      func() time.Time
}

func New(chats Store, groups GroupReader, logger *zap.Logger) *Service {
	return &Service{
		chats:  chats,
		groups: groups,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithAuditLog records refused chat operations to l.
func (s *Service) WithAuditLog(l *auditlog.Logger) *Service {
	s.auditLog = l
	return s
}

var (
	errChatNotFound  = apperr.NotFoundf("Chat not found")
	errGroupNotFound = apperr.NotFoundf("Group not found")
)

func scope(c models.Chat) string {
	if c.IsGroupChat() {
		return "group"
	}
	return "personal"
}

func (s *Service) loadGroup(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	g, err := s.groups.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", id.Hex(), err)
	}
	return &g, nil
}

func (s *Service) loadGroupHex(ctx context.Context, id string) (*models.Group, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errGroupNotFound
	}
	g, err := s.loadGroup(ctx, oid)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errGroupNotFound
	}
	return g, nil
}

// load fetches a chat and, for a group chat, its group. A group that no
// longer exists comes back nil, which the gate treats as non-membership.
func (s *Service) load(ctx context.Context, chatID string) (models.Chat, *models.Group, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(chatID))
	if err != nil {
		return models.Chat{}, nil, errChatNotFound
	}
	c, err := s.chats.GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Chat{}, nil, errChatNotFound
	}
	if err != nil {
		return models.Chat{}, nil, fmt.Errorf("load chat %s: %w", oid.Hex(), err)
	}
	if !c.IsGroupChat() {
		return c, nil, nil
	}
	g, err := s.loadGroup(ctx, *c.GroupID)
	if err != nil {
		return models.Chat{}, nil, err
	}
	return c, g, nil
}

func (s *Service) authorize(actor string, c *models.Chat, g *models.Group, op accesspolicy.Operation) error {
	v := accesspolicy.Authorize(actor, accesspolicy.Resource{Group: g, Chat: c}, op)
	if !v.Allowed() {
		var gid primitive.ObjectID
		if g != nil {
			gid = g.ID
		}
		target := ""
		if c != nil {
			target = c.ID.Hex()
		}
		s.auditLog.Denied(op.String(), actor, gid, target, string(v.Reason))
	}
	if op == accesspolicy.ChatSend && v.Reason == accesspolicy.ReasonViewer {
		return apperr.Forbidden(string(v.Reason), "Viewers are not permitted to send messages")
	}
	return v.Err()
}

// GetOrCreate returns the chat behind chatID when it exists and the actor may
// send into it. Otherwise it creates a new chat, group-shared when groupID is
// set and personal when it is not.
func (s *Service) GetOrCreate(ctx context.Context, actor models.Actor, chatID, groupID, firstMessage string) (models.Chat, *models.Group, error) {
	if strings.TrimSpace(chatID) != "" {
		c, g, err := s.load(ctx, chatID)
		switch {
		case err == nil:
			if err := s.authorize(actor.Email, &c, g, accesspolicy.ChatSend); err != nil {
				return models.Chat{}, nil, err
			}
			return c, g, nil
		case errors.Is(err, errChatNotFound):
			// fall through to create
		default:
			return models.Chat{}, nil, err
		}
	}

	var g *models.Group
	if strings.TrimSpace(groupID) != "" {
		var err error
		if g, err = s.loadGroupHex(ctx, groupID); err != nil {
			return models.Chat{}, nil, err
		}
	}
	if err := s.authorize(actor.Email, nil, g, accesspolicy.ChatSend); err != nil {
		return models.Chat{}, nil, err
	}

	c := models.Chat{Title: models.ChatTitle(strings.TrimSpace(firstMessage)), Messages: []models.Message{}}
	if g != nil {
		gid := g.ID
		c.GroupID = &gid
	} else {
		c.UserID = actor.Email
	}
	created, err := s.chats.Create(ctx, c)
	if err != nil {
		s.log.Error("create chat failed",
			zap.String("actor", actor.Email),
			zap.String("group_id", groupID),
			zap.Error(err))
		return models.Chat{}, nil, fmt.Errorf("create chat: %w", err)
	}
	return created, g, nil
}

// Append pushes msgs onto the end of the chat's history in one update.
func (s *Service) Append(ctx context.Context, chatID primitive.ObjectID, msgs ...models.Message) error {
	now := s.now()
	for i := range msgs {
		if msgs[i].Timestamp.IsZero() {
			msgs[i].Timestamp = now
		}
	}
	err := s.chats.AppendMessages(ctx, chatID, msgs...)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errChatNotFound
	}
	if err != nil {
		s.log.Error("append messages failed",
			zap.String("chat_id", chatID.Hex()),
			zap.Int("count", len(msgs)),
			zap.Error(err))
		return fmt.Errorf("append messages: %w", err)
	}
	return nil
}

// Get returns a chat the actor may read.
func (s *Service) Get(ctx context.Context, actor models.Actor, chatID string) (models.Chat, error) {
	c, g, err := s.load(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if err := s.authorize(actor.Email, &c, g, accesspolicy.ChatRead); err != nil {
		return models.Chat{}, err
	}
	return c, nil
}

// ReplaceMessages overwrites the whole history and returns what was stored.
func (s *Service) ReplaceMessages(ctx context.Context, actor models.Actor, chatID string, msgs []models.Message) ([]models.Message, error) {
	if msgs == nil {
		return nil, apperr.Invalid("missing_messages", "Messages array is required")
	}
	now := s.now()
	for i := range msgs {
		if !msgs[i].Role.Valid() {
			return nil, apperr.Invalid("invalid_message", fmt.Sprintf("Invalid message role at index %d", i))
		}
		if msgs[i].Timestamp.IsZero() {
			msgs[i].Timestamp = now
		}
	}

	c, g, err := s.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor.Email, &c, g, accesspolicy.ChatUpdate); err != nil {
		return nil, err
	}

	err = s.chats.ReplaceMessages(ctx, c.ID, msgs)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errChatNotFound
	}
	if err != nil {
		s.log.Error("replace messages failed",
			zap.String("actor", actor.Email),
			zap.String("chat_id", c.ID.Hex()),
			zap.Error(err))
		return nil, fmt.Errorf("replace messages: %w", err)
	}

	fresh, err := s.chats.GetByID(ctx, c.ID)
	if err != nil {
		return msgs, nil
	}
	return fresh.Messages, nil
}

// Revert truncates the history to the messages before index.
func (s *Service) Revert(ctx context.Context, actor models.Actor, chatID string, index int) ([]models.Message, error) {
	c, err := s.Get(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index > len(c.Messages) {
		return nil, apperr.Invalid("invalid_index", "Invalid revert index")
	}
	kept := append([]models.Message{}, c.Messages[:index]...)
	return s.ReplaceMessages(ctx, actor, chatID, kept)
}

// List returns the actor's personal chats, or every chat of groupID when the
// actor is a member. Personal listings never include group chats.
func (s *Service) List(ctx context.Context, actor models.Actor, groupID string) ([]models.ChatSummary, error) {
	if strings.TrimSpace(groupID) == "" {
		if err := accesspolicy.Authorize(actor.Email, accesspolicy.Resource{}, accesspolicy.ChatList).Err(); err != nil {
			return nil, err
		}
		out, err := s.chats.ListPersonal(ctx, actor.Email)
		if err != nil {
			s.log.Error("list personal chats failed", zap.String("actor", actor.Email), zap.Error(err))
			return nil, fmt.Errorf("list chats: %w", err)
		}
		return out, nil
	}

	g, err := s.loadGroupHex(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor.Email, nil, g, accesspolicy.ChatList); err != nil {
		return nil, err
	}
	out, err := s.chats.ListByGroup(ctx, g.ID)
	if err != nil {
		s.log.Error("list group chats failed",
			zap.String("actor", actor.Email),
			zap.String("group_id", g.ID.Hex()),
			zap.Error(err))
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return out, nil
}

// Delete removes a chat the actor may delete.
func (s *Service) Delete(ctx context.Context, actor models.Actor, chatID string) error {
	c, g, err := s.load(ctx, chatID)
	if err != nil {
		return err
	}
	if err := s.authorize(actor.Email, &c, g, accesspolicy.ChatDelete); err != nil {
		return err
	}
	n, err := s.chats.Delete(ctx, c.ID)
	if err != nil {
		s.log.Error("delete chat failed",
			zap.String("actor", actor.Email),
			zap.String("chat_id", c.ID.Hex()),
			zap.Error(err))
		return fmt.Errorf("delete chat: %w", err)
	}
	if n == 0 {
		return errChatNotFound
	}
	return nil
}
