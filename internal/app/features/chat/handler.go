// internal/app/features/chat/handler.go
package chat

import (
	"context"
	"errors"
	"net/http"

	chatcore "github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/app/policy/projectpolicy"
	membershipstore "github.com/dalemusser/crewhub/internal/app/store/memberships"
	messagestore "github.com/dalemusser/crewhub/internal/app/store/messages"
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/dalemusser/crewhub/internal/app/system/httpjson"
	"github.com/dalemusser/crewhub/internal/app/system/paging"
	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the HTTP side of project chat. Posting goes through
// the same ingestor the websocket path uses, so both paths persist
// before they broadcast.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Messages *messagestore.Store
	Members  *membershipstore.Store
	Ingestor *chatcore.Ingestor

	// HistoryMax caps how many messages a single history request may
	// return; comes from the chat_history_max config key.
	HistoryMax int64
}

func NewHandler(db *mongo.Database, ing *chatcore.Ingestor, historyMax int64, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		Messages:   messagestore.New(db),
		Members:    membershipstore.New(db),
		Ingestor:   ing,
		HistoryMax: historyMax,
	}
}

type postRequest struct {
	Content string `json:"content"`
}

// Post handles POST /chat/{projectID}/messages.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
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

	var req postRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.requireMember(ctx, w, projectID, userID) {
		return
	}

	m, err := h.Ingestor.Send(ctx, projectID, userID, req.Content)
	if err != nil {
		if errors.Is(err, chatcore.ErrEmptyMessage) {
			httpjson.Error(w, http.StatusBadRequest, "message is empty")
			return
		}
		h.Log.Error("post message", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not send message")
		return
	}

	httpjson.Write(w, http.StatusCreated, m)
}

// History handles GET /chat/{projectID}/messages?limit=n, oldest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
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

	limit := paging.ParseLimit(r, paging.ChatHistorySize, h.HistoryMax)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.requireMember(ctx, w, projectID, userID) {
		return
	}

	list, err := h.Messages.ListByProject(ctx, projectID, limit)
	if err != nil {
		h.Log.Error("list messages", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load messages")
		return
	}

	httpjson.Write(w, http.StatusOK, list)
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
