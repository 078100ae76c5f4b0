// internal/app/features/applications/handler.go
package applications

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/crewhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/crewhub/internal/app/review"
	applicationstore "github.com/dalemusser/crewhub/internal/app/store/applications"
	membershipstore "github.com/dalemusser/crewhub/internal/app/store/memberships"
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/dalemusser/crewhub/internal/app/system/httpjson"
	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for project applications.
// Decisions go through the review service so side effects and
// notifications stay consistent.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	Apps    *applicationstore.Store
	Members *membershipstore.Store
	Review  *review.Service
}

func NewHandler(db *mongo.Database, svc *review.Service, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		Apps:    applicationstore.New(db),
		Members: membershipstore.New(db),
		Review:  svc,
	}
}

type applyRequest struct {
	ProjectID string `json:"project_id"`
	Note      string `json:"note"`
}

// Apply handles POST /applications.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	applicantID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session user")
		return
	}

	var req applyRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := h.Review.Apply(ctx, projectID, applicantID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, applicationstore.ErrDuplicateApplication):
			httpjson.Error(w, http.StatusConflict, "you have already applied to this project")
		case errors.Is(err, mongo.ErrNoDocuments):
			httpjson.Error(w, http.StatusNotFound, "project not found")
		default:
			h.Log.Error("apply", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "could not submit application")
		}
		return
	}

	httpjson.Write(w, http.StatusCreated, a)
}

// ListByProject handles GET /applications/project/{projectID}. Only
// reviewers (owner or admin) may see a project's applications.
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

	ok, err := projectpolicy.CanReviewApplications(ctx, h.Members, projectID, userID)
	if err != nil {
		h.Log.Error("reviewer check", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load applications")
		return
	}
	if !ok {
		httpjson.Error(w, http.StatusForbidden, "not allowed to review this project")
		return
	}

	list, err := h.Apps.ListByProject(ctx, projectID, r.URL.Query().Get("status"))
	if err != nil {
		h.Log.Error("list applications", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load applications")
		return
	}

	httpjson.Write(w, http.StatusOK, list)
}

// ListMine handles GET /applications/mine.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Apps.ListByApplicant(ctx, userID)
	if err != nil {
		h.Log.Error("list own applications", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load applications")
		return
	}

	httpjson.Write(w, http.StatusOK, list)
}

type rejectRequest struct {
	Feedback string `json:"feedback"`
}

// Accept handles POST /applications/{applicationID}/accept.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(ctx context.Context, id primitive.ObjectID) error {
		return h.Review.Accept(ctx, id)
	})
}

// Reject handles POST /applications/{applicationID}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.decide(w, r, func(ctx context.Context, id primitive.ObjectID) error {
		return h.Review.Reject(ctx, id, req.Feedback)
	})
}

// decide loads the application, checks the caller may review its
// project, then runs the decision.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, primitive.ObjectID) error) {
	u, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session user")
		return
	}

	appID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "applicationID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid application id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	a, err := h.Apps.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "application not found")
			return
		}
		h.Log.Error("get application", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load application")
		return
	}

	ok, err := projectpolicy.CanReviewApplications(ctx, h.Members, a.ProjectID, userID)
	if err != nil {
		h.Log.Error("reviewer check", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not review application")
		return
	}
	if !ok {
		httpjson.Error(w, http.StatusForbidden, "not allowed to review this project")
		return
	}

	if err := fn(ctx, appID); err != nil {
		switch {
		case errors.Is(err, review.ErrNotPending):
			httpjson.Error(w, http.StatusConflict, "application has already been decided")
		case review.IsNotFound(err):
			httpjson.Error(w, http.StatusNotFound, "application not found")
		default:
			h.Log.Error("decide application", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "could not review application")
		}
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"decided": true})
}
