// internal/app/chat/ingest.go

// Package chat implements the dual-path message ingestor. A chat send
// arrives either through the durable HTTP write path or through the
// real-time path; both converge here, and both get the same contract:
// the message is persisted exactly once and broadcast at least once, in
// that order. Clients treat the durable path as the source of truth and
// the real-time echo purely as a latency optimization.
package chat

import (
	"context"
	"errors"

	"github.com/dalemusser/crewhub/internal/app/realtime"
	"github.com/dalemusser/crewhub/internal/app/system/sanitize"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrEmptyMessage means the content was empty after sanitizing.
var ErrEmptyMessage = errors.New("message content is empty")

// MessageCreator persists chat messages, assigning the surrogate ID and
// timestamp. Implemented by the message store.
type MessageCreator interface {
	Create(ctx context.Context, m models.Message) (models.Message, error)
}

// Broadcaster fans a frame out to a project room. Implemented by the
// realtime router; delivery is best-effort per recipient and reports no
// error to the emitter.
type Broadcaster interface {
	BroadcastToRoom(projectID primitive.ObjectID, f realtime.Outbound)
}

// Ingestor is the single entry point for chat sends.
type Ingestor struct {
	messages MessageCreator
	rt       Broadcaster
	log      *zap.Logger
}

func NewIngestor(messages MessageCreator, rt Broadcaster, logger *zap.Logger) *Ingestor {
	return &Ingestor{messages: messages, rt: rt, log: logger}
}

// Send persists the message and then broadcasts it to the project room.
//
// Persistence happens first so the broadcast frame carries the durable
// surrogate ID clients de-duplicate by, and so a client reloading right
// after seeing the echo always finds the message in history. If
// persistence fails the send fails and nothing is broadcast; if the
// broadcast path is down the message is merely not pushed, and the next
// history fetch surfaces it.
func (i *Ingestor) Send(ctx context.Context, projectID, senderID primitive.ObjectID, content string) (models.Message, error) {
	content = sanitize.Clean(content)
	if content == "" {
		return models.Message{}, ErrEmptyMessage
	}

	m, err := i.messages.Create(ctx, models.Message{
		ProjectID: projectID,
		SenderID:  senderID,
		Content:   content,
	})
	if err != nil {
		return models.Message{}, err
	}

	i.rt.BroadcastToRoom(projectID, realtime.ChatFrame(m))
	return m, nil
}
