// internal/app/chat/ingest_test.go
package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/app/realtime"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeStore struct {
	created []models.Message
	err     error
}

func (f *fakeStore) Create(ctx context.Context, m models.Message) (models.Message, error) {
	if f.err != nil {
		return models.Message{}, f.err
	}
	m.ID = primitive.NewObjectID()
	f.created = append(f.created, m)
	return m, nil
}

type fakeBroadcaster struct {
	frames []realtime.Outbound
}

func (f *fakeBroadcaster) BroadcastToRoom(projectID primitive.ObjectID, frame realtime.Outbound) {
	f.frames = append(f.frames, frame)
}

func TestSend_PersistsBeforeBroadcast(t *testing.T) {
	store := &fakeStore{}
	bc := &fakeBroadcaster{}
	ing := chat.NewIngestor(store, bc, zap.NewNop())

	projectID := primitive.NewObjectID()
	senderID := primitive.NewObjectID()

	m, err := ing.Send(context.Background(), projectID, senderID, "hello team")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.ID.IsZero() {
		t.Error("returned message has no durable ID")
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(store.created))
	}
	if len(bc.frames) != 1 {
		t.Fatalf("expected 1 broadcast frame, got %d", len(bc.frames))
	}
	if bc.frames[0].Type != realtime.TypeChatMessage {
		t.Errorf("wrong frame type: %q", bc.frames[0].Type)
	}
}

func TestSend_PersistenceFailureSkipsBroadcast(t *testing.T) {
	store := &fakeStore{err: errors.New("write failed")}
	bc := &fakeBroadcaster{}
	ing := chat.NewIngestor(store, bc, zap.NewNop())

	_, err := ing.Send(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "lost")
	if err == nil {
		t.Fatal("expected an error from a failed persist")
	}
	if len(bc.frames) != 0 {
		t.Fatalf("broadcast happened despite persistence failure: %d frames", len(bc.frames))
	}
}

func TestSend_EmptyAfterSanitizing(t *testing.T) {
	store := &fakeStore{}
	bc := &fakeBroadcaster{}
	ing := chat.NewIngestor(store, bc, zap.NewNop())

	for _, content := range []string{"", "   ", "<script>alert(1)</script>"} {
		_, err := ing.Send(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), content)
		if !errors.Is(err, chat.ErrEmptyMessage) {
			t.Errorf("content %q: expected ErrEmptyMessage, got %v", content, err)
		}
	}
	if len(store.created) != 0 {
		t.Errorf("empty messages were persisted: %d", len(store.created))
	}
}

func TestSend_StripsMarkupButKeepsText(t *testing.T) {
	store := &fakeStore{}
	ing := chat.NewIngestor(store, &fakeBroadcaster{}, zap.NewNop())

	m, err := ing.Send(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "hi <script>x()</script>there")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.Content != "hi there" {
		t.Errorf("unexpected sanitized content: %q", m.Content)
	}
}
