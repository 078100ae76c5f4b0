// internal/app/store/applications/applicationstore.go
package applicationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crewhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrDuplicateApplication means the user already has a pending
	// application for this project.
	ErrDuplicateApplication = errors.New("user already has a pending application for this project")

	// ErrNotPending means a decision was attempted on an application
	// that is no longer (or never was) pending. Accepted and rejected
	// are terminal; re-deciding must not re-run side effects.
	ErrNotPending = errors.New("application is not pending")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Application, error) {
	var a models.Application
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Application{}, err
	}
	return a, nil
}

// Create inserts a new application in pending status.
func (s *Store) Create(ctx context.Context, a models.Application) (models.Application, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Status = models.ApplicationPending
	a.Feedback = ""
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Application{}, ErrDuplicateApplication
		}
		return models.Application{}, err
	}
	return a, nil
}

// Decide moves a pending application to the given terminal status,
// persisting feedback when supplied. The filter requires the current
// status to be pending, so a decision on an already-decided application
// matches nothing and returns ErrNotPending. This conditional update is
// what keeps re-invocation from re-running side effects.
func (s *Store) Decide(ctx context.Context, id primitive.ObjectID, status, feedback string) error {
	if status != models.ApplicationAccepted && status != models.ApplicationRejected {
		return errors.New(`status must be "accepted" or "rejected"`)
	}
	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if feedback != "" {
		set["feedback"] = feedback
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ApplicationPending},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotPending
	}
	return nil
}

// ListByProject returns a project's applications, newest first,
// optionally filtered by status.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID, status string) ([]models.Application, error) {
	filter := bson.M{"project_id": projectID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var apps []models.Application
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ListByApplicant returns a user's applications, newest first.
func (s *Store) ListByApplicant(ctx context.Context, applicantID primitive.ObjectID) ([]models.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"applicant_id": applicantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var apps []models.Application
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}
