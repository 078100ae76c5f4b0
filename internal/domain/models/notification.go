// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification category tags.
const (
	NotifyApplicationReceived = "application_received"
	NotifyApplicationAccepted = "application_accepted"
	NotifyApplicationRejected = "application_rejected"
	NotifyTaskAssigned        = "task_assigned"
	NotifyEventCreated        = "event_created"
)

// Notification is a durable per-user notice created by side-effecting
// state transitions. It is mutated only by the read-marking operation
// and never deleted; the notification list is the source of truth when
// a live push is dropped.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Type      string              `bson:"type" json:"type"`
	Message   string              `bson:"message" json:"message"`
	RelatedID *primitive.ObjectID `bson:"related_id,omitempty" json:"related_id,omitempty"`
	IsRead    bool                `bson:"is_read" json:"is_read"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
