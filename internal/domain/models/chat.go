// internal/domain/models/chat.go
package models

import (
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	chatTitleRunes   = 30
	DefaultChatTitle = "Group Intelligence Session"
)

// Chat is one conversation thread. A personal chat has UserID set and no
// GroupID; a group-shared chat has GroupID set and no UserID.
type Chat struct {
	ID        primitive.ObjectID  `bson:"_id" json:"_id"`
	UserID    string              `bson:"user_id,omitempty" json:"userId,omitempty"`
	GroupID   *primitive.ObjectID `bson:"group_id,omitempty" json:"groupId,omitempty"`
	Title     string              `bson:"title" json:"title"`
	Messages  []Message           `bson:"messages" json:"messages"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// IsGroupChat reports whether the chat is shared with a group.
func (c *Chat) IsGroupChat() bool {
	return c.GroupID != nil && !c.GroupID.IsZero()
}

// ChatSummary is the listing projection of a Chat.
type ChatSummary struct {
	ID        primitive.ObjectID  `bson:"_id" json:"_id"`
	Title     string              `bson:"title" json:"title"`
	GroupID   *primitive.ObjectID `bson:"group_id,omitempty" json:"groupId,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// Message is one entry in a chat's ordered history.
type Message struct {
	Role        MessageRole `bson:"role" json:"role"`
	Content     string      `bson:"content" json:"content"`
	SenderName  string      `bson:"sender_name,omitempty" json:"senderName,omitempty"`
	SenderImage string      `bson:"sender_image,omitempty" json:"senderImage,omitempty"`
	Image       string      `bson:"image,omitempty" json:"image,omitempty"`
	ToolCallID  string      `bson:"tool_call_id,omitempty" json:"tool_call_id,omitempty"`
	Name        string      `bson:"name,omitempty" json:"name,omitempty"`
	ToolCalls   []ToolCall  `bson:"tool_calls,omitempty" json:"tool_calls,omitempty"`
	Timestamp   time.Time   `bson:"timestamp" json:"timestamp"`
}

// ToolCall is an assistant request to run a named tool.
type ToolCall struct {
	ID       string       `bson:"id" json:"id"`
	Type     string       `bson:"type" json:"type"`
	Function FunctionCall `bson:"function" json:"function"`
}

// FunctionCall carries the tool name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `bson:"name" json:"name"`
	Arguments string `bson:"arguments" json:"arguments"`
}

// ChatTitle derives a chat title from the first user message.
func ChatTitle(message string) string {
	if message == "" {
		return DefaultChatTitle
	}
	if utf8.RuneCountInString(message) <= chatTitleRunes {
		return message
	}
	runes := []rune(message)
	return string(runes[:chatTitleRunes]) + "..."
}
