// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/crewhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given name and email. The
// password for every fixture user is "test-password".
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("test-password"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: hash,
		Role:         models.UserRoleUser,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateProject creates a test project owned by ownerID, including the
// owner's team membership.
func (f *Fixtures) CreateProject(ctx context.Context, title string, ownerID primitive.ObjectID) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		Description: "A test project.",
		OwnerID:     ownerID,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "projects", p)
	f.CreateMembership(ctx, p.ID, ownerID, models.RoleOwner)
	return p
}

// CreateMembership creates a team membership row directly.
func (f *Fixtures) CreateMembership(ctx context.Context, projectID, userID primitive.ObjectID, role string) models.TeamMembership {
	f.t.Helper()

	m := models.TeamMembership{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "team_memberships", m)
	return m
}

// CreateApplication creates an application in the given status.
func (f *Fixtures) CreateApplication(ctx context.Context, projectID, applicantID primitive.ObjectID, status string) models.Application {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Application{
		ID:          primitive.NewObjectID(),
		ProjectID:   projectID,
		ApplicantID: applicantID,
		Status:      status,
		Note:        "I would like to join.",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "applications", a)
	return a
}

// CreateMessage creates a chat message in the project room.
func (f *Fixtures) CreateMessage(ctx context.Context, projectID, senderID primitive.ObjectID, content string) models.Message {
	f.t.Helper()

	m := models.Message{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "messages", m)
	return m
}

// CreateNotification creates an unread notification for the user.
func (f *Fixtures) CreateNotification(ctx context.Context, userID primitive.ObjectID, typ, message string) models.Notification {
	f.t.Helper()

	n := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Type:      typ,
		Message:   message,
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "notifications", n)
	return n
}

// CreateTask creates a task on the project.
func (f *Fixtures) CreateTask(ctx context.Context, projectID primitive.ObjectID, title string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		Title:     title,
		Status:    models.TaskTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "tasks", task)
	return task
}

// CreateEvent creates a calendar event on the project.
func (f *Fixtures) CreateEvent(ctx context.Context, projectID, createdBy primitive.ObjectID, title string, startsAt time.Time) models.CalendarEvent {
	f.t.Helper()

	e := models.CalendarEvent{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		Title:     title,
		StartsAt:  startsAt,
		EndsAt:    startsAt.Add(time.Hour),
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "calendar_events", e)
	return e
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert %s fixture: %v", coll, err)
	}
}
