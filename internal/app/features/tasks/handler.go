// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/crewhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/crewhub/internal/app/realtime"
	membershipstore "github.com/dalemusser/crewhub/internal/app/store/memberships"
	notificationstore "github.com/dalemusser/crewhub/internal/app/store/notifications"
	taskstore "github.com/dalemusser/crewhub/internal/app/store/tasks"
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

// Handler is the feature-level handler for project tasks. Changes are
// broadcast to the project room and assignees get a notification.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	Tasks   *taskstore.Store
	Members *membershipstore.Store
	Notifs  *notificationstore.Store
	RT      *realtime.Router
}

func NewHandler(db *mongo.Database, rt *realtime.Router, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		Tasks:   taskstore.New(db),
		Members: membershipstore.New(db),
		Notifs:  notificationstore.New(db),
		RT:      rt,
	}
}

func validStatus(s string) bool {
	switch s {
	case models.TaskTodo, models.TaskInProgress, models.TaskDone:
		return true
	}
	return false
}

type taskRequest struct {
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AssigneeID  string `json:"assignee_id"`
}

// Create handles POST /tasks.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session user")
		return
	}

	var req taskRequest
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
	if req.Status == "" {
		req.Status = models.TaskTodo
	}
	if !validStatus(req.Status) {
		httpjson.Error(w, http.StatusBadRequest, "invalid task status")
		return
	}

	var assigneeID *primitive.ObjectID
	if req.AssigneeID != "" {
		id, err := primitive.ObjectIDFromHex(req.AssigneeID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid assignee id")
			return
		}
		assigneeID = &id
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.requireMember(ctx, w, projectID, userID) {
		return
	}

	t, err := h.Tasks.Create(ctx, models.Task{
		ProjectID:   projectID,
		Title:       title,
		Description: sanitize.Clean(req.Description),
		Status:      req.Status,
		AssigneeID:  assigneeID,
	})
	if err != nil {
		h.Log.Error("create task", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create task")
		return
	}

	h.RT.BroadcastToRoom(projectID, realtime.TaskFrame(t))
	h.notifyAssignee(ctx, t, userID)

	httpjson.Write(w, http.StatusCreated, t)
}

// Update handles PUT /tasks/{taskID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session user")
		return
	}

	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req taskRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := sanitize.Text(req.Title)
	if title == "" {
		httpjson.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if !validStatus(req.Status) {
		httpjson.Error(w, http.StatusBadRequest, "invalid task status")
		return
	}

	var assigneeID *primitive.ObjectID
	if req.AssigneeID != "" {
		id, err := primitive.ObjectIDFromHex(req.AssigneeID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid assignee id")
			return
		}
		assigneeID = &id
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prev, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "task not found")
			return
		}
		h.Log.Error("get task", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update task")
		return
	}

	if !h.requireMember(ctx, w, prev.ProjectID, userID) {
		return
	}

	t, err := h.Tasks.Update(ctx, taskID, title, sanitize.Clean(req.Description), req.Status, assigneeID)
	if err != nil {
		h.Log.Error("update task", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update task")
		return
	}

	h.RT.BroadcastToRoom(t.ProjectID, realtime.TaskFrame(t))

	// Only a newly assigned user gets notified.
	if t.AssigneeID != nil && (prev.AssigneeID == nil || *prev.AssigneeID != *t.AssigneeID) {
		h.notifyAssignee(ctx, t, userID)
	}

	httpjson.Write(w, http.StatusOK, t)
}

// ListByProject handles GET /tasks/project/{projectID}.
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

	list, err := h.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		h.Log.Error("list tasks", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load tasks")
		return
	}

	httpjson.Write(w, http.StatusOK, list)
}

// notifyAssignee stores a task_assigned notification and pushes it to
// the assignee's live connections. Self-assignment is silent.
func (h *Handler) notifyAssignee(ctx context.Context, t models.Task, actor primitive.ObjectID) {
	if t.AssigneeID == nil || *t.AssigneeID == actor {
		return
	}
	n, err := h.Notifs.Create(ctx, models.Notification{
		UserID:    *t.AssigneeID,
		Type:      models.NotifyTaskAssigned,
		Message:   "You were assigned the task \"" + t.Title + "\".",
		RelatedID: &t.ID,
	})
	if err != nil {
		h.Log.Error("create assignment notification", zap.String("task", t.ID.Hex()), zap.Error(err))
		return
	}
	h.RT.PushToUser(*t.AssigneeID, realtime.NotificationFrame(n))
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
