// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/dalemusser/crewhub/internal/app/system/httpjson"
	"go.uber.org/zap"
)

// Handler clears the current session.
type Handler struct {
	Log      *zap.Logger
	Sessions *auth.SessionManager
}

func NewHandler(sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, Sessions: sm}
}

// SignOut handles POST /logout. Signing out without a session is fine.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Error("sign out", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not sign out")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"signed_out": true})
}
