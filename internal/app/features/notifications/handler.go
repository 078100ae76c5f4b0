// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"errors"
	"net/http"

	notificationstore "github.com/dalemusser/crewhub/internal/app/store/notifications"
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/dalemusser/crewhub/internal/app/system/httpjson"
	"github.com/dalemusser/crewhub/internal/app/system/paging"
	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for notifications.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Notifs *notificationstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Notifs: notificationstore.New(db),
	}
}

// List handles GET /notifications?limit=n, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	limit := paging.ParseLimit(r, paging.NotificationSize, 0)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Notifs.ListByUser(ctx, userID, limit)
	if err != nil {
		h.Log.Error("list notifications", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load notifications")
		return
	}

	httpjson.Write(w, http.StatusOK, list)
}

// Count handles GET /notifications/count and returns the unread count.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	count, err := h.Notifs.CountUnread(ctx, userID)
	if err != nil {
		h.Log.Error("count notifications", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not count notifications")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"count": count})
}

// MarkRead handles POST /notifications/{notificationID}/read. Marking
// another user's notification reads as not found.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "notificationID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notifs.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "notification not found")
			return
		}
		h.Log.Error("mark notification read", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update notification")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"read": true})
}

// MarkAllRead handles POST /notifications/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Notifs.MarkAllRead(ctx, userID)
	if err != nil {
		h.Log.Error("mark all notifications read", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update notifications")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"updated": n})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	u, _ := auth.CurrentUser(r)
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid session user")
		return primitive.NilObjectID, false
	}
	return id, true
}
