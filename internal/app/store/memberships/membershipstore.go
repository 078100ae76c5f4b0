// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crewhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("team_memberships")}
}

var errBadRole = errors.New(`role must be "owner", "admin", or "member"`)

// ErrDuplicateMembership means the user is already on the project's team.
// The unique (project_id, user_id) index makes this the durable backstop
// against duplicate side effects from repeated accept decisions.
var ErrDuplicateMembership = errors.New("user is already a member of this project")

// Add creates a membership binding a user to a project with a role.
func (s *Store) Add(ctx context.Context, projectID, userID primitive.ObjectID, role string) error {
	if role != models.RoleOwner && role != models.RoleAdmin && role != models.RoleMember {
		return errBadRole
	}

	doc := bson.M{
		"project_id": projectID,
		"user_id":    userID,
		"role":       role,
		"created_at": time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Remove deletes the membership document for (projectID, userID).
func (s *Store) Remove(ctx context.Context, projectID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"project_id": projectID, "user_id": userID})
	return err
}

// Exists checks if a membership exists for the given project and user.
func (s *Store) Exists(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"project_id": projectID, "user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RoleOf returns the role the user holds on the project, or an empty
// string (and nil error) when the user is not on the team.
func (s *Store) RoleOf(ctx context.Context, projectID, userID primitive.ObjectID) (string, error) {
	var m models.TeamMembership
	err := s.c.FindOne(ctx, bson.M{"project_id": projectID, "user_id": userID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// ListByProject returns all memberships for a project, optionally
// filtered by role. If role is empty, returns all memberships.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID, role string) ([]models.TeamMembership, error) {
	filter := bson.M{"project_id": projectID}
	if role != "" {
		filter["role"] = role
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.TeamMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListByUser returns all memberships for a user.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.TeamMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.TeamMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountByProject returns the count of memberships for a project,
// optionally filtered by role.
func (s *Store) CountByProject(ctx context.Context, projectID primitive.ObjectID, role string) (int64, error) {
	filter := bson.M{"project_id": projectID}
	if role != "" {
		filter["role"] = role
	}
	return s.c.CountDocuments(ctx, filter)
}

// DeleteByProject removes all memberships for a project.
// Returns the number of documents deleted.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
