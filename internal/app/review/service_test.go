// internal/app/review/service_test.go
package review_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/crewhub/internal/app/realtime"
	"github.com/dalemusser/crewhub/internal/app/review"
	applicationstore "github.com/dalemusser/crewhub/internal/app/store/applications"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeApps struct {
	byID    map[primitive.ObjectID]models.Application
	decided []string // statuses passed to Decide, in order
}

func newFakeApps() *fakeApps {
	return &fakeApps{byID: make(map[primitive.ObjectID]models.Application)}
}

func (f *fakeApps) GetByID(ctx context.Context, id primitive.ObjectID) (models.Application, error) {
	a, ok := f.byID[id]
	if !ok {
		return models.Application{}, mongo.ErrNoDocuments
	}
	return a, nil
}

func (f *fakeApps) Create(ctx context.Context, a models.Application) (models.Application, error) {
	a.ID = primitive.NewObjectID()
	a.Status = models.ApplicationPending
	f.byID[a.ID] = a
	return a, nil
}

// Decide mimics the store's conditional update: only a pending
// application transitions.
func (f *fakeApps) Decide(ctx context.Context, id primitive.ObjectID, status, feedback string) error {
	a, ok := f.byID[id]
	if !ok || a.Status != models.ApplicationPending {
		return applicationstore.ErrNotPending
	}
	a.Status = status
	a.Feedback = feedback
	f.byID[id] = a
	f.decided = append(f.decided, status)
	return nil
}

type fakeMembers struct {
	added []primitive.ObjectID // user IDs
	err   error
}

func (f *fakeMembers) Add(ctx context.Context, projectID, userID primitive.ObjectID, role string) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, userID)
	return nil
}

type fakeNotifs struct {
	created []models.Notification
	err     error
}

func (f *fakeNotifs) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	if f.err != nil {
		return models.Notification{}, f.err
	}
	n.ID = primitive.NewObjectID()
	f.created = append(f.created, n)
	return n, nil
}

type fakeProjects struct {
	project models.Project
}

func (f *fakeProjects) GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	if f.project.ID != id {
		return models.Project{}, mongo.ErrNoDocuments
	}
	return f.project, nil
}

type fakePusher struct {
	pushed []primitive.ObjectID // recipient user IDs
}

func (f *fakePusher) PushToUser(userID primitive.ObjectID, frame realtime.Outbound) {
	f.pushed = append(f.pushed, userID)
}

type harness struct {
	apps     *fakeApps
	members  *fakeMembers
	notifs   *fakeNotifs
	projects *fakeProjects
	pusher   *fakePusher
	svc      *review.Service

	project models.Project
	owner   primitive.ObjectID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	owner := primitive.NewObjectID()
	project := models.Project{
		ID:      primitive.NewObjectID(),
		Title:   "Orbit Tracker",
		OwnerID: owner,
	}

	h := &harness{
		apps:     newFakeApps(),
		members:  &fakeMembers{},
		notifs:   &fakeNotifs{},
		projects: &fakeProjects{project: project},
		pusher:   &fakePusher{},
		project:  project,
		owner:    owner,
	}
	// nil mongo client: the transaction wrapper runs the body directly.
	h.svc = review.NewService(h.apps, h.members, h.notifs, h.projects, h.pusher, nil, zap.NewNop())
	return h
}

func TestApply_CreatesPendingAndNotifiesOwner(t *testing.T) {
	h := newHarness(t)
	applicant := primitive.NewObjectID()

	app, err := h.svc.Apply(context.Background(), h.project.ID, applicant, "let me in")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.Status != models.ApplicationPending {
		t.Errorf("expected pending, got %q", app.Status)
	}

	if len(h.notifs.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(h.notifs.created))
	}
	n := h.notifs.created[0]
	if n.UserID != h.owner {
		t.Error("notification did not go to the project owner")
	}
	if n.Type != models.NotifyApplicationReceived {
		t.Errorf("wrong notification type: %q", n.Type)
	}
	if len(h.pusher.pushed) != 1 || h.pusher.pushed[0] != h.owner {
		t.Error("push did not go to the project owner")
	}
}

func TestApply_NotificationFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.notifs.err = errors.New("notification write failed")

	app, err := h.svc.Apply(context.Background(), h.project.ID, primitive.NewObjectID(), "")
	if err != nil {
		t.Fatalf("apply must survive a notification failure: %v", err)
	}
	if app.Status != models.ApplicationPending {
		t.Errorf("expected pending, got %q", app.Status)
	}
	if len(h.pusher.pushed) != 0 {
		t.Error("push attempted for a notification that was never stored")
	}
}

func TestAccept_RunsAllSideEffects(t *testing.T) {
	h := newHarness(t)
	applicant := primitive.NewObjectID()
	app, _ := h.svc.Apply(context.Background(), h.project.ID, applicant, "")
	h.notifs.created = nil
	h.pusher.pushed = nil

	if err := h.svc.Accept(context.Background(), app.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if got := h.apps.byID[app.ID].Status; got != models.ApplicationAccepted {
		t.Errorf("expected accepted, got %q", got)
	}
	if len(h.members.added) != 1 || h.members.added[0] != applicant {
		t.Error("applicant was not added to the team")
	}
	if len(h.notifs.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(h.notifs.created))
	}
	n := h.notifs.created[0]
	if n.UserID != applicant || n.Type != models.NotifyApplicationAccepted {
		t.Errorf("wrong acceptance notification: %+v", n)
	}
	if !strings.Contains(n.Message, h.project.Title) {
		t.Errorf("notification does not name the project: %q", n.Message)
	}
	if len(h.pusher.pushed) != 1 || h.pusher.pushed[0] != applicant {
		t.Error("push did not go to the applicant")
	}
}

func TestAccept_DecidedApplicationIsNotPending(t *testing.T) {
	h := newHarness(t)
	app, _ := h.svc.Apply(context.Background(), h.project.ID, primitive.NewObjectID(), "")

	if err := h.svc.Accept(context.Background(), app.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	memberships := len(h.members.added)
	notifications := len(h.notifs.created)

	if err := h.svc.Accept(context.Background(), app.ID); !errors.Is(err, review.ErrNotPending) {
		t.Fatalf("second accept: expected ErrNotPending, got %v", err)
	}
	if err := h.svc.Reject(context.Background(), app.ID, "too late"); !errors.Is(err, review.ErrNotPending) {
		t.Fatalf("reject after accept: expected ErrNotPending, got %v", err)
	}

	// No duplicate side effects.
	if len(h.members.added) != memberships {
		t.Error("membership side effect ran twice")
	}
	if len(h.notifs.created) != notifications {
		t.Error("notification side effect ran twice")
	}
}

func TestAccept_MembershipFailureMeansNoPush(t *testing.T) {
	h := newHarness(t)
	app, _ := h.svc.Apply(context.Background(), h.project.ID, primitive.NewObjectID(), "")
	h.pusher.pushed = nil
	h.members.err = errors.New("membership write failed")

	if err := h.svc.Accept(context.Background(), app.ID); err == nil {
		t.Fatal("expected accept to fail")
	}
	if len(h.pusher.pushed) != 0 {
		t.Error("push happened despite failed side effects")
	}
}

func TestAccept_UnknownApplication(t *testing.T) {
	h := newHarness(t)
	err := h.svc.Accept(context.Background(), primitive.NewObjectID())
	if !review.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestReject_NoMembershipAndFeedbackInMessage(t *testing.T) {
	h := newHarness(t)
	applicant := primitive.NewObjectID()
	app, _ := h.svc.Apply(context.Background(), h.project.ID, applicant, "")
	h.notifs.created = nil
	h.pusher.pushed = nil

	if err := h.svc.Reject(context.Background(), app.ID, "need more experience"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if got := h.apps.byID[app.ID].Status; got != models.ApplicationRejected {
		t.Errorf("expected rejected, got %q", got)
	}
	if len(h.members.added) != 0 {
		t.Error("rejection must not create a membership")
	}
	if len(h.notifs.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(h.notifs.created))
	}
	n := h.notifs.created[0]
	if n.UserID != applicant || n.Type != models.NotifyApplicationRejected {
		t.Errorf("wrong rejection notification: %+v", n)
	}
	if !strings.Contains(n.Message, "need more experience") {
		t.Errorf("feedback missing from message: %q", n.Message)
	}
}

func TestReject_WithoutFeedbackUsesGenericMessage(t *testing.T) {
	h := newHarness(t)
	app, _ := h.svc.Apply(context.Background(), h.project.ID, primitive.NewObjectID(), "")
	h.notifs.created = nil

	if err := h.svc.Reject(context.Background(), app.ID, "  "); err != nil {
		t.Fatalf("reject: %v", err)
	}
	msg := h.notifs.created[0].Message
	if !strings.Contains(msg, "declined") || strings.Contains(msg, ":") {
		t.Errorf("expected generic decline message, got %q", msg)
	}
}
