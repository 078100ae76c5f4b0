// internal/app/review/service.go

// Package review drives the application lifecycle: a user applies to a
// project (pending), and a project owner/admin accepts or rejects.
// Accepted and rejected are terminal; every decision carries durable
// side effects (team membership, notification) plus a best-effort
// real-time push.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/crewhub/internal/app/realtime"
	applicationstore "github.com/dalemusser/crewhub/internal/app/store/applications"
	"github.com/dalemusser/crewhub/internal/app/system/sanitize"
	"github.com/dalemusser/crewhub/internal/app/system/txn"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrNotPending mirrors the store sentinel for callers of this package.
var ErrNotPending = applicationstore.ErrNotPending

// ApplicationStore is the slice of the application store the service needs.
type ApplicationStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Application, error)
	Create(ctx context.Context, a models.Application) (models.Application, error)
	Decide(ctx context.Context, id primitive.ObjectID, status, feedback string) error
}

// MembershipStore creates team memberships from accepted applications.
type MembershipStore interface {
	Add(ctx context.Context, projectID, userID primitive.ObjectID, role string) error
}

// NotificationStore persists decision notifications.
type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
}

// ProjectStore resolves the project a decision refers to.
type ProjectStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error)
}

// Pusher delivers a frame to all of a user's live connections. Push is
// attempted only after durable writes commit and its failure is never
// fatal: the notification list is the source of truth on next load.
type Pusher interface {
	PushToUser(userID primitive.ObjectID, f realtime.Outbound)
}

// Service is the only writer of Application.status and the sole creator
// of membership-from-application and notification-from-decision.
type Service struct {
	apps     ApplicationStore
	members  MembershipStore
	notifs   NotificationStore
	projects ProjectStore
	rt       Pusher

	// client enables multi-document transactions around decisions;
	// nil in unit tests and on deployments without transaction support.
	client *mongo.Client
	log    *zap.Logger
}

func NewService(apps ApplicationStore, members MembershipStore, notifs NotificationStore, projects ProjectStore, rt Pusher, client *mongo.Client, logger *zap.Logger) *Service {
	return &Service{
		apps:     apps,
		members:  members,
		notifs:   notifs,
		projects: projects,
		rt:       rt,
		client:   client,
		log:      logger,
	}
}

// Apply creates a pending application and notifies the project owner.
func (s *Service) Apply(ctx context.Context, projectID, applicantID primitive.ObjectID, note string) (models.Application, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return models.Application{}, err
	}

	app, err := s.apps.Create(ctx, models.Application{
		ProjectID:   projectID,
		ApplicantID: applicantID,
		Note:        sanitize.Clean(note),
	})
	if err != nil {
		return models.Application{}, err
	}

	n, err := s.notifs.Create(ctx, models.Notification{
		UserID:    project.OwnerID,
		Type:      models.NotifyApplicationReceived,
		Message:   fmt.Sprintf("New application to join %q", project.Title),
		RelatedID: &app.ID,
	})
	if err != nil {
		// The application exists either way; the owner still sees it in
		// the review queue.
		s.log.Error("application-received notification failed",
			zap.String("application_id", app.ID.Hex()),
			zap.Error(err))
		return app, nil
	}
	s.rt.PushToUser(project.OwnerID, realtime.NotificationFrame(n))
	return app, nil
}

// Accept moves a pending application to accepted, adds the applicant to
// the project team as a member, and records an acceptance notification.
// The three writes run in one transaction where supported; the status
// update's pending precondition means re-invoking on a decided
// application returns ErrNotPending without re-running side effects.
func (s *Service) Accept(ctx context.Context, applicationID primitive.ObjectID) error {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.IsTerminal() {
		return ErrNotPending
	}

	project, err := s.projects.GetByID(ctx, app.ProjectID)
	if err != nil {
		return err
	}

	var notif models.Notification
	err = txn.WithTransaction(ctx, s.client, s.log, func(ctx context.Context) error {
		if err := s.apps.Decide(ctx, applicationID, models.ApplicationAccepted, ""); err != nil {
			return err
		}
		if err := s.members.Add(ctx, app.ProjectID, app.ApplicantID, models.RoleMember); err != nil {
			return err
		}
		n, err := s.notifs.Create(ctx, models.Notification{
			UserID:    app.ApplicantID,
			Type:      models.NotifyApplicationAccepted,
			Message:   fmt.Sprintf("Your application to %q was accepted. Welcome to the team!", project.Title),
			RelatedID: &app.ProjectID,
		})
		if err != nil {
			return err
		}
		notif = n
		return nil
	})
	if err != nil {
		return err
	}

	s.rt.PushToUser(app.ApplicantID, realtime.NotificationFrame(notif))
	return nil
}

// Reject moves a pending application to rejected with optional
// feedback. No team membership is created or removed.
func (s *Service) Reject(ctx context.Context, applicationID primitive.ObjectID, feedback string) error {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.IsTerminal() {
		return ErrNotPending
	}

	project, err := s.projects.GetByID(ctx, app.ProjectID)
	if err != nil {
		return err
	}

	feedback = sanitize.Clean(feedback)
	message := fmt.Sprintf("Your application to %q was declined.", project.Title)
	if feedback != "" {
		message = fmt.Sprintf("Your application to %q was declined: %s", project.Title, feedback)
	}

	var notif models.Notification
	err = txn.WithTransaction(ctx, s.client, s.log, func(ctx context.Context) error {
		if err := s.apps.Decide(ctx, applicationID, models.ApplicationRejected, feedback); err != nil {
			return err
		}
		n, err := s.notifs.Create(ctx, models.Notification{
			UserID:    app.ApplicantID,
			Type:      models.NotifyApplicationRejected,
			Message:   message,
			RelatedID: &app.ProjectID,
		})
		if err != nil {
			return err
		}
		notif = n
		return nil
	})
	if err != nil {
		return err
	}

	s.rt.PushToUser(app.ApplicantID, realtime.NotificationFrame(notif))
	return nil
}

// IsNotFound reports whether err is the store's missing-document error.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
