// internal/app/realtime/frame.go
package realtime

import (
	"encoding/json"

	"github.com/dalemusser/crewhub/internal/domain/models"
)

// Frame type tags exchanged over the real-time transport.
const (
	TypeUserConnect       = "user-connect"
	TypeJoinProject       = "join-project"
	TypeJoined            = "joined"
	TypeChatMessage       = "chat-message"
	TypeTaskUpdate        = "task-update"
	TypeNewNotification   = "new-notification"
	TypeNotificationCount = "notification-count"
)

// Envelope is the wire shape of every frame: a type tag, an optional
// project scope, and a type-specific payload. IDs travel as ObjectID
// hex strings.
type Envelope struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Inbound is the closed set of frames a client may send. Decoding never
// yields anything outside this set: unknown tags become Unrecognized and
// are handled by a single fallback path.
type Inbound interface {
	inbound()
}

// UserConnect announces the user identity bound to the connection.
type UserConnect struct {
	UserID string `json:"userId"`
}

// JoinProject asks to join a project's broadcast room.
type JoinProject struct {
	ProjectID string `json:"-"`
	UserID    string `json:"userId"`
}

// ChatSend carries a chat message on the real-time path.
type ChatSend struct {
	ProjectID string `json:"-"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
}

// TaskUpdate carries a full task record for room fan-out.
type TaskUpdate struct {
	ProjectID string      `json:"-"`
	Task      models.Task `json:"-"`
}

// Unrecognized is the fallback variant for forward compatibility:
// tags this server does not know are dropped, never fatal.
type Unrecognized struct {
	Type string
}

func (UserConnect) inbound()  {}
func (JoinProject) inbound()  {}
func (ChatSend) inbound()     {}
func (TaskUpdate) inbound()   {}
func (Unrecognized) inbound() {}

// DecodeInbound parses a raw frame into its closed variant. An error is
// returned only for malformed JSON; unknown type tags decode cleanly to
// Unrecognized.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeUserConnect:
		var f UserConnect
		if err := json.Unmarshal(env.Data, &f); err != nil {
			return nil, err
		}
		return f, nil

	case TypeJoinProject:
		var f JoinProject
		if err := json.Unmarshal(env.Data, &f); err != nil {
			return nil, err
		}
		f.ProjectID = env.ProjectID
		return f, nil

	case TypeChatMessage:
		var f ChatSend
		if err := json.Unmarshal(env.Data, &f); err != nil {
			return nil, err
		}
		f.ProjectID = env.ProjectID
		return f, nil

	case TypeTaskUpdate:
		var t models.Task
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return nil, err
		}
		return TaskUpdate{ProjectID: env.ProjectID, Task: t}, nil

	default:
		return Unrecognized{Type: env.Type}, nil
	}
}

// Outbound is a server-to-client frame ready for serialization.
type Outbound struct {
	Type      string
	ProjectID string
	Data      any
}

// Encode serializes the frame to its wire envelope.
func (o Outbound) Encode() ([]byte, error) {
	data, err := json.Marshal(o.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: o.Type, ProjectID: o.ProjectID, Data: data})
}

// JoinedFrame acknowledges a join to the originating connection only.
func JoinedFrame(projectID string) Outbound {
	return Outbound{Type: TypeJoined, ProjectID: projectID, Data: struct{}{}}
}

// ChatFrame wraps a persisted message for room fan-out. The message
// already carries its durable surrogate ID, which is the client's
// de-duplication key.
func ChatFrame(m models.Message) Outbound {
	return Outbound{
		Type:      TypeChatMessage,
		ProjectID: m.ProjectID.Hex(),
		Data: map[string]any{
			"id":        m.ID.Hex(),
			"senderId":  m.SenderID.Hex(),
			"content":   m.Content,
			"timestamp": m.CreatedAt,
		},
	}
}

// TaskFrame wraps a full task record for room fan-out.
func TaskFrame(t models.Task) Outbound {
	return Outbound{Type: TypeTaskUpdate, ProjectID: t.ProjectID.Hex(), Data: t}
}

// NotificationFrame wraps a persisted notification for per-user push.
func NotificationFrame(n models.Notification) Outbound {
	data := map[string]any{
		"id":      n.ID.Hex(),
		"message": n.Message,
		"type":    n.Type,
		"isRead":  n.IsRead,
	}
	if n.RelatedID != nil {
		data["relatedId"] = n.RelatedID.Hex()
	}
	return Outbound{Type: TypeNewNotification, Data: data}
}

// NotificationCountFrame reports a user's unread notification count.
func NotificationCountFrame(count int64) Outbound {
	return Outbound{Type: TypeNotificationCount, Data: map[string]any{"count": count}}
}
