// pkg/rtclient/frame.go
package rtclient

import "encoding/json"

// Frame type tags understood by the server.
const (
	TypeUserConnect       = "user-connect"
	TypeJoinProject       = "join-project"
	TypeJoined            = "joined"
	TypeChatMessage       = "chat-message"
	TypeTaskUpdate        = "task-update"
	TypeNewNotification   = "new-notification"
	TypeNotificationCount = "notification-count"
)

// Frame is the wire envelope exchanged with the server. Data holds the
// type-specific payload.
type Frame struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

func decodeFrame(raw []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(raw, &f)
	return f, err
}
