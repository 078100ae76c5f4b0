// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/crewhub/internal/app/policy/projectpolicy"
	membershipstore "github.com/dalemusser/crewhub/internal/app/store/memberships"
	projectstore "github.com/dalemusser/crewhub/internal/app/store/projects"
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

// Handler is the feature-level handler for Projects.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Projects *projectstore.Store
	Members  *membershipstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Projects: projectstore.New(db),
		Members:  membershipstore.New(db),
	}
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Create handles POST /projects. The creator becomes the project owner
// and is recorded as a team member.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ownerID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session user")
		return
	}

	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := sanitize.Text(req.Title)
	if title == "" {
		httpjson.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Projects.Create(ctx, models.Project{
		Title:       title,
		Description: sanitize.Clean(req.Description),
		OwnerID:     ownerID,
	})
	if err != nil {
		h.Log.Error("create project", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create project")
		return
	}

	if err := h.Members.Add(ctx, p.ID, ownerID, models.RoleOwner); err != nil {
		h.Log.Error("add owner membership", zap.String("project", p.ID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create project")
		return
	}

	httpjson.Write(w, http.StatusCreated, p)
}

// Get handles GET /projects/{projectID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("get project", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load project")
		return
	}

	httpjson.Write(w, http.StatusOK, p)
}

// ListMine handles GET /projects/mine and returns every project the
// signed-in user belongs to, owned or joined.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	memberships, err := h.Members.ListByUser(ctx, userID)
	if err != nil {
		h.Log.Error("list memberships", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load projects")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ProjectID)
	}

	list, err := h.Projects.ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("list projects", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load projects")
		return
	}

	httpjson.Write(w, http.StatusOK, list)
}

// ListMembers handles GET /projects/{projectID}/members. Restricted to
// members of the project.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
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

	ok, err := projectpolicy.IsTeamMember(ctx, h.Members, projectID, userID)
	if err != nil {
		h.Log.Error("membership check", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load members")
		return
	}
	if !ok {
		httpjson.Error(w, http.StatusForbidden, "not a member of this project")
		return
	}

	list, err := h.Members.ListByProject(ctx, projectID, "")
	if err != nil {
		h.Log.Error("list members", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load members")
		return
	}

	httpjson.Write(w, http.StatusOK, list)
}

// Delete handles DELETE /projects/{projectID}. Owner only. Memberships
// go with the project.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	p, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("get project", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete project")
		return
	}
	if p.OwnerID != userID {
		httpjson.Error(w, http.StatusForbidden, "only the owner can delete a project")
		return
	}

	if _, err := h.Projects.Delete(ctx, projectID); err != nil {
		h.Log.Error("delete project", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete project")
		return
	}
	if _, err := h.Members.DeleteByProject(ctx, projectID); err != nil {
		h.Log.Error("delete memberships", zap.String("project", projectID.Hex()), zap.Error(err))
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"deleted": true})
}
