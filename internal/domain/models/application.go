// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application status values. Pending is the only non-terminal status;
// accepted and rejected have no outgoing transitions.
const (
	ApplicationPending  = "pending"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)

// Application is a user's request to join a project's team.
//
// Exactly one review decision is made per application: the reviewing
// owner/admin moves it from pending to accepted or rejected. Feedback
// is only attached at rejection time.
type Application struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID   primitive.ObjectID `bson:"project_id" json:"project_id"`
	ApplicantID primitive.ObjectID `bson:"applicant_id" json:"applicant_id"`
	Status      string             `bson:"status" json:"status"`
	Note        string             `bson:"note,omitempty" json:"note,omitempty"`
	Feedback    string             `bson:"feedback,omitempty" json:"feedback,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the application has been decided.
func (a *Application) IsTerminal() bool {
	return a.Status == ApplicationAccepted || a.Status == ApplicationRejected
}
