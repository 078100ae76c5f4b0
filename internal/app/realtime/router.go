// internal/app/realtime/router.go
package realtime

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Router performs outbound fan-out over the registry. Delivery is
// fire-and-forget per recipient: a failed send to one connection is
// logged and swallowed, never propagated to other recipients or to the
// emitting caller.
type Router struct {
	reg *Registry
	log *zap.Logger
}

func NewRouter(reg *Registry, logger *zap.Logger) *Router {
	return &Router{reg: reg, log: logger}
}

// BroadcastToRoom sends the frame to every connection in the project's
// room at call time. Connections whose transport has since closed are
// skipped and retired.
func (rt *Router) BroadcastToRoom(projectID primitive.ObjectID, f Outbound) {
	for _, c := range rt.reg.MembersOf(projectID) {
		if err := c.Send(f); err != nil {
			rt.log.Debug("room send failed",
				zap.String("conn_id", c.ID()),
				zap.String("project_id", projectID.Hex()),
				zap.String("frame_type", f.Type),
				zap.Error(err))
		}
	}
}

// PushToUser sends the frame to every connection bound to the user,
// independent of room membership. Used for notifications a user must
// receive without ever having joined the related project's room.
func (rt *Router) PushToUser(userID primitive.ObjectID, f Outbound) {
	for _, c := range rt.reg.ConnectionsOf(userID) {
		if err := c.Send(f); err != nil {
			rt.log.Debug("user push failed",
				zap.String("conn_id", c.ID()),
				zap.String("user_id", userID.Hex()),
				zap.String("frame_type", f.Type),
				zap.Error(err))
		}
	}
}
