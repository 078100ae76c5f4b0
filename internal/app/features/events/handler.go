// internal/app/features/events/handler.go
package events

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/crewhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/crewhub/internal/app/realtime"
	eventstore "github.com/dalemusser/crewhub/internal/app/store/events"
	membershipstore "github.com/dalemusser/crewhub/internal/app/store/memberships"
	notificationstore "github.com/dalemusser/crewhub/internal/app/store/notifications"
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/dalemusser/crewhub/internal/app/system/httpjson"
	"github.com/dalemusser/crewhub/internal/app/system/sanitize"
	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for calendar events. Creating
// an event notifies the rest of the team.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	Events  *eventstore.Store
	Members *membershipstore.Store
	Notifs  *notificationstore.Store
	RT      *realtime.Router
}

func NewHandler(db *mongo.Database, rt *realtime.Router, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		Events:  eventstore.New(db),
		Members: membershipstore.New(db),
		Notifs:  notificationstore.New(db),
		RT:      rt,
	}
}

type createRequest struct {
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

// Create handles POST /events.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session user")
		return
	}

	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}
	title := sanitize.Text(req.Title)
	if title == "" {
		httpjson.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.StartsAt.IsZero() {
		httpjson.Error(w, http.StatusBadRequest, "starts_at is required")
		return
	}
	if !req.EndsAt.IsZero() && req.EndsAt.Before(req.StartsAt) {
		httpjson.Error(w, http.StatusBadRequest, "ends_at is before starts_at")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if !h.requireMember(ctx, w, projectID, userID) {
		return
	}

	e, err := h.Events.Create(ctx, models.CalendarEvent{
		ProjectID:   projectID,
		Title:       title,
		Description: sanitize.Clean(req.Description),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedBy:   userID,
	})
	if err != nil {
		h.Log.Error("create event", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create event")
		return
	}

	h.notifyTeam(ctx, e, userID)

	httpjson.Write(w, http.StatusCreated, e)
}

// ListByProject handles GET /events/project/{projectID}.
func (h *Handler) ListByProject(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session user")
		return
	}

	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.requireMember(ctx, w, projectID, userID) {
		return
	}

	list, err := h.Events.ListByProject(ctx, projectID)
	if err != nil {
		h.Log.Error("list events", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load events")
		return
	}

	httpjson.Write(w, http.StatusOK, list)
}

// notifyTeam stores an event_created notification for every team
// member except the creator and pushes it to their live connections.
// Notification failures are logged, not surfaced.
func (h *Handler) notifyTeam(ctx context.Context, e models.CalendarEvent, creator primitive.ObjectID) {
	memberships, err := h.Members.ListByProject(ctx, e.ProjectID, "")
	if err != nil {
		h.Log.Error("list team for event notification", zap.Error(err))
		return
	}
	for _, m := range memberships {
		if m.UserID == creator {
			continue
		}
		n, err := h.Notifs.Create(ctx, models.Notification{
			UserID:    m.UserID,
			Type:      models.NotifyEventCreated,
			Message:   "New event \"" + e.Title + "\" was added to the project calendar.",
			RelatedID: &e.ID,
		})
		if err != nil {
			h.Log.Error("create event notification", zap.String("user", m.UserID.Hex()), zap.Error(err))
			continue
		}
		h.RT.PushToUser(m.UserID, realtime.NotificationFrame(n))
	}
}

func (h *Handler) requireMember(ctx context.Context, w http.ResponseWriter, projectID, userID primitive.ObjectID) bool {
	ok, err := projectpolicy.IsTeamMember(ctx, h.Members, projectID, userID)
	if err != nil {
		h.Log.Error("membership check", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not verify membership")
		return false
	}
	if !ok {
		httpjson.Error(w, http.StatusForbidden, "not a member of this project")
		return false
	}
	return true
}
