// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Platform-level user roles.
const (
	UserRoleAdmin = "admin"
	UserRoleUser  = "user"
)

// User represents an account on the platform.
//
// NOTE:
//   - Team membership is not embedded on User.
//     Use the team_memberships collection to discover a user's projects.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"email_ci"`
	PasswordHash []byte             `bson:"password_hash,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"` // "admin" | "user"
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
