// internal/app/features/ws/handler.go
package ws

import (
	"net/http"

	"github.com/dalemusser/crewhub/internal/app/realtime"
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler upgrades HTTP requests to websocket connections and hands
// them to the realtime registry and dispatcher.
type Handler struct {
	Registry   *realtime.Registry
	Dispatcher *realtime.Dispatcher
	Log        *zap.Logger

	upgrader websocket.Upgrader
}

func NewHandler(reg *realtime.Registry, d *realtime.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		Registry:   reg,
		Dispatcher: d,
		Log:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is enforced by the session cookie's SameSite
			// policy; the API is served same-origin behind a proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. The connection is admitted to the registry
// before any frame is processed, then bound to the signed-in user so
// pushes reach it even if the client never announces itself.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	s := realtime.NewSocket(conn, h.Log)
	h.Registry.Admit(s)

	if uid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
		h.Registry.BindUser(s, uid)
	}

	go s.WriteLoop()

	// ReadLoop blocks until the peer disconnects, keeping the request
	// context alive for dispatched handlers.
	s.ReadLoop(r.Context(), h.Dispatcher, h.Registry)
}
