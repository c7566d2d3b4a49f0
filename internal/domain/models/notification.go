// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SystemSender is the sender used for notifications not authored by a user.
const SystemSender = "System"

// Notification is an inbox entry. Only the recipient may mark it read or delete it.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Recipient string             `bson:"recipient" json:"recipient"`
	Sender    string             `bson:"sender" json:"sender"`
	Type      NotificationType   `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Link      string             `bson:"link,omitempty" json:"link,omitempty"`
	Metadata  map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Message   string             `bson:"message" json:"message"`
	Status    string             `bson:"status" json:"status"` // new | read | replied
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
