// internal/app/store/applications/applicationstore_test.go
package applicationstore_test

import (
	"errors"
	"testing"

	applicationstore "github.com/dalemusser/crewhub/internal/app/store/applications"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"github.com/dalemusser/crewhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestCreate_ForcesPendingStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := applicationstore.New(db)

	a, err := store.Create(ctx, models.Application{
		ProjectID:   primitive.NewObjectID(),
		ApplicantID: primitive.NewObjectID(),
		Status:      models.ApplicationAccepted, // caller cannot pre-decide
		Note:        "hi",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != models.ApplicationPending {
		t.Errorf("expected pending, got %q", a.Status)
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.ApplicationPending {
		t.Errorf("persisted status: expected pending, got %q", got.Status)
	}
}

func TestCreate_DuplicateApplication(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := applicationstore.New(db)

	// The duplicate guard is backed by the partial unique index
	// EnsureSchema creates in production. Partial on pending so a
	// rejected applicant can apply again.
	_, err := db.Collection("applications").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "applicant_id", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": models.ApplicationPending}),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	projectID := primitive.NewObjectID()
	applicantID := primitive.NewObjectID()

	if _, err := store.Create(ctx, models.Application{ProjectID: projectID, ApplicantID: applicantID}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err = store.Create(ctx, models.Application{ProjectID: projectID, ApplicantID: applicantID})
	if !errors.Is(err, applicationstore.ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}
}

func TestCreate_AllowsReapplyAfterRejection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := applicationstore.New(db)

	_, err := db.Collection("applications").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "applicant_id", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": models.ApplicationPending}),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	projectID := primitive.NewObjectID()
	applicantID := primitive.NewObjectID()

	first, err := store.Create(ctx, models.Application{ProjectID: projectID, ApplicantID: applicantID})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := store.Decide(ctx, first.ID, models.ApplicationRejected, "not this time"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// The rejection leaves the partial unique index, so a fresh
	// application is allowed.
	if _, err := store.Create(ctx, models.Application{ProjectID: projectID, ApplicantID: applicantID}); err != nil {
		t.Fatalf("reapply after rejection: %v", err)
	}
}

func TestDecide_OnlyOnceFromPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := applicationstore.New(db)

	a, err := store.Create(ctx, models.Application{
		ProjectID:   primitive.NewObjectID(),
		ApplicantID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.Decide(ctx, a.ID, models.ApplicationAccepted, ""); err != nil {
		t.Fatalf("first decide: %v", err)
	}

	// Terminal states have no outgoing transitions.
	if err := store.Decide(ctx, a.ID, models.ApplicationRejected, "changed my mind"); !errors.Is(err, applicationstore.ErrNotPending) {
		t.Fatalf("second decide: expected ErrNotPending, got %v", err)
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.ApplicationAccepted {
		t.Errorf("status overwritten: %q", got.Status)
	}
	if got.Feedback != "" {
		t.Errorf("feedback from refused decision persisted: %q", got.Feedback)
	}
}

func TestDecide_RejectStoresFeedback(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := applicationstore.New(db)

	a, _ := store.Create(ctx, models.Application{
		ProjectID:   primitive.NewObjectID(),
		ApplicantID: primitive.NewObjectID(),
	})

	if err := store.Decide(ctx, a.ID, models.ApplicationRejected, "try again next cycle"); err != nil {
		t.Fatalf("decide: %v", err)
	}
	got, _ := store.GetByID(ctx, a.ID)
	if got.Status != models.ApplicationRejected {
		t.Errorf("expected rejected, got %q", got.Status)
	}
	if got.Feedback != "try again next cycle" {
		t.Errorf("feedback not stored: %q", got.Feedback)
	}
}

func TestDecide_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := applicationstore.New(db)

	a, _ := store.Create(ctx, models.Application{
		ProjectID:   primitive.NewObjectID(),
		ApplicantID: primitive.NewObjectID(),
	})
	if err := store.Decide(ctx, a.ID, "pending", ""); err == nil {
		t.Fatal("expected an error for a non-terminal target status")
	}
}

func TestListByProject_StatusFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := applicationstore.New(db)
	fx := testutil.NewFixtures(t, db)

	projectID := primitive.NewObjectID()
	fx.CreateApplication(ctx, projectID, primitive.NewObjectID(), models.ApplicationPending)
	fx.CreateApplication(ctx, projectID, primitive.NewObjectID(), models.ApplicationPending)
	fx.CreateApplication(ctx, projectID, primitive.NewObjectID(), models.ApplicationRejected)
	fx.CreateApplication(ctx, primitive.NewObjectID(), primitive.NewObjectID(), models.ApplicationPending)

	all, err := store.ListByProject(ctx, projectID, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 applications, got %d", len(all))
	}

	pending, err := store.ListByProject(ctx, projectID, models.ApplicationPending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 pending applications, got %d", len(pending))
	}
}
