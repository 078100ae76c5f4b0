// internal/app/realtime/dispatch.go
package realtime

import (
	"context"

	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ChatSender accepts a chat message for the persist-then-broadcast path.
// Implemented by the dual-path ingestor.
type ChatSender interface {
	Send(ctx context.Context, projectID, senderID primitive.ObjectID, content string) (models.Message, error)
}

// MembershipChecker answers whether a user is on a project's team.
// Join requests are only admitted for team members; the registry itself
// performs no authorization.
type MembershipChecker interface {
	Exists(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error)
}

// UnreadCounter reports a user's unread notification count, pushed to a
// connection right after it announces its identity.
type UnreadCounter interface {
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// Dispatcher interprets inbound frames from one connection's read loop
// and drives the registry, the chat ingestor, and room fan-out.
//
// Error policy: a malformed or unauthorized frame is dropped and the
// connection stays open; noisy clients are isolated without punishing
// the session.
type Dispatcher struct {
	reg     *Registry
	router  *Router
	chat    ChatSender
	members MembershipChecker
	unread  UnreadCounter
	log     *zap.Logger
}

func NewDispatcher(reg *Registry, router *Router, chat ChatSender, members MembershipChecker, unread UnreadCounter, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		reg:     reg,
		router:  router,
		chat:    chat,
		members: members,
		unread:  unread,
		log:     logger,
	}
}

// Dispatch handles one raw inbound frame from conn.
func (d *Dispatcher) Dispatch(ctx context.Context, conn Conn, raw []byte) {
	frame, err := DecodeInbound(raw)
	if err != nil {
		d.log.Debug("dropping malformed frame",
			zap.String("conn_id", conn.ID()),
			zap.Error(err))
		return
	}

	switch f := frame.(type) {
	case UserConnect:
		d.handleUserConnect(ctx, conn, f)
	case JoinProject:
		d.handleJoinProject(ctx, conn, f)
	case ChatSend:
		d.handleChatSend(ctx, conn, f)
	case TaskUpdate:
		d.handleTaskUpdate(conn, f)
	case Unrecognized:
		d.log.Debug("ignoring unrecognized frame type",
			zap.String("conn_id", conn.ID()),
			zap.String("frame_type", f.Type))
	}
}

func (d *Dispatcher) handleUserConnect(ctx context.Context, conn Conn, f UserConnect) {
	userID, err := primitive.ObjectIDFromHex(f.UserID)
	if err != nil {
		d.log.Debug("user-connect with bad user id",
			zap.String("conn_id", conn.ID()),
			zap.String("user_id", f.UserID))
		return
	}
	d.reg.BindUser(conn, userID)

	count, err := d.unread.CountUnread(ctx, userID)
	if err != nil {
		d.log.Warn("unread count lookup failed",
			zap.String("user_id", f.UserID),
			zap.Error(err))
		return
	}
	if err := conn.Send(NotificationCountFrame(count)); err != nil {
		d.log.Debug("notification count send failed",
			zap.String("conn_id", conn.ID()),
			zap.Error(err))
	}
}

func (d *Dispatcher) handleJoinProject(ctx context.Context, conn Conn, f JoinProject) {
	projectID, err := primitive.ObjectIDFromHex(f.ProjectID)
	if err != nil {
		d.log.Debug("join-project with bad project id",
			zap.String("conn_id", conn.ID()),
			zap.String("project_id", f.ProjectID))
		return
	}
	userID, err := primitive.ObjectIDFromHex(f.UserID)
	if err != nil {
		d.log.Debug("join-project with bad user id",
			zap.String("conn_id", conn.ID()),
			zap.String("user_id", f.UserID))
		return
	}

	ok, err := d.members.Exists(ctx, projectID, userID)
	if err != nil {
		d.log.Warn("membership check failed",
			zap.String("project_id", f.ProjectID),
			zap.String("user_id", f.UserID),
			zap.Error(err))
		return
	}
	if !ok {
		d.log.Info("join-project refused for non-member",
			zap.String("project_id", f.ProjectID),
			zap.String("user_id", f.UserID))
		return
	}

	d.reg.BindUser(conn, userID)
	d.reg.JoinRoom(conn, projectID)

	// Ack goes to the originating connection only, never the room.
	if err := conn.Send(JoinedFrame(f.ProjectID)); err != nil {
		d.log.Debug("join ack send failed",
			zap.String("conn_id", conn.ID()),
			zap.Error(err))
	}
}

func (d *Dispatcher) handleChatSend(ctx context.Context, conn Conn, f ChatSend) {
	projectID, err := primitive.ObjectIDFromHex(f.ProjectID)
	if err != nil {
		d.log.Debug("chat-message with bad project id",
			zap.String("conn_id", conn.ID()),
			zap.String("project_id", f.ProjectID))
		return
	}
	senderID, err := primitive.ObjectIDFromHex(f.SenderID)
	if err != nil {
		d.log.Debug("chat-message with bad sender id",
			zap.String("conn_id", conn.ID()),
			zap.String("sender_id", f.SenderID))
		return
	}

	// Persist-then-broadcast happens inside the ingestor. A persistence
	// failure means no broadcast; the durable write path is the one the
	// client must treat as the source of truth.
	if _, err := d.chat.Send(ctx, projectID, senderID, f.Content); err != nil {
		d.log.Warn("real-time chat send failed",
			zap.String("project_id", f.ProjectID),
			zap.String("sender_id", f.SenderID),
			zap.Error(err))
	}
}

func (d *Dispatcher) handleTaskUpdate(conn Conn, f TaskUpdate) {
	if f.Task.ProjectID == primitive.NilObjectID {
		d.log.Debug("task-update without project id",
			zap.String("conn_id", conn.ID()))
		return
	}
	d.router.BroadcastToRoom(f.Task.ProjectID, TaskFrame(f.Task))
}
