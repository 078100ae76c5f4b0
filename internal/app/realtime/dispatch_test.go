// internal/app/realtime/dispatch_test.go
package realtime_test

import (
	"context"
	"errors"
	"testing"

	chatcore "github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/app/realtime"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeChat struct {
	calls []string
	err   error
}

func (f *fakeChat) Send(ctx context.Context, projectID, senderID primitive.ObjectID, content string) (models.Message, error) {
	f.calls = append(f.calls, content)
	if f.err != nil {
		return models.Message{}, f.err
	}
	return models.Message{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		SenderID:  senderID,
		Content:   content,
	}, nil
}

type fakeMembers struct {
	member bool
	err    error
}

func (f *fakeMembers) Exists(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	return f.member, f.err
}

type fakeUnread struct {
	count int64
}

func (f *fakeUnread) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return f.count, nil
}

// fakeMessages stands in for the message store beneath a real ingestor.
type fakeMessages struct {
	created []models.Message
	err     error
}

func (f *fakeMessages) Create(ctx context.Context, m models.Message) (models.Message, error) {
	if f.err != nil {
		return models.Message{}, f.err
	}
	m.ID = primitive.NewObjectID()
	f.created = append(f.created, m)
	return m, nil
}

func newDispatcher(reg *realtime.Registry, chat realtime.ChatSender, members *fakeMembers, unread *fakeUnread) *realtime.Dispatcher {
	router := realtime.NewRouter(reg, zap.NewNop())
	return realtime.NewDispatcher(reg, router, chat, members, unread, zap.NewNop())
}

// newChatDispatcher wires a real ingestor over a fake message store so
// the persist-then-broadcast path runs end to end through the router.
func newChatDispatcher(reg *realtime.Registry, msgs *fakeMessages, members *fakeMembers) *realtime.Dispatcher {
	router := realtime.NewRouter(reg, zap.NewNop())
	ing := chatcore.NewIngestor(msgs, router, zap.NewNop())
	return realtime.NewDispatcher(reg, router, ing, members, &fakeUnread{}, zap.NewNop())
}

func TestDispatch_UserConnectBindsAndPushesCount(t *testing.T) {
	reg := realtime.NewRegistry()
	d := newDispatcher(reg, &fakeChat{}, &fakeMembers{}, &fakeUnread{count: 3})
	userID := primitive.NewObjectID()
	c := newFakeConn("c1")
	reg.Admit(c)

	raw := []byte(`{"type":"user-connect","data":{"userId":"` + userID.Hex() + `"}}`)
	d.Dispatch(context.Background(), c, raw)

	if got := len(reg.ConnectionsOf(userID)); got != 1 {
		t.Fatalf("expected connection bound to user, got %d", got)
	}
	frames := c.sent()
	if len(frames) != 1 || frames[0].Type != realtime.TypeNotificationCount {
		t.Fatalf("expected a notification-count frame, got %v", frames)
	}
}

func TestDispatch_JoinProjectMemberGetsAck(t *testing.T) {
	reg := realtime.NewRegistry()
	d := newDispatcher(reg, &fakeChat{}, &fakeMembers{member: true}, &fakeUnread{})
	projectID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	c := newFakeConn("c1")
	other := newFakeConn("c2")
	reg.Admit(c)
	reg.Admit(other)
	reg.JoinRoom(other, projectID)

	raw := []byte(`{"type":"join-project","projectId":"` + projectID.Hex() + `","data":{"userId":"` + userID.Hex() + `"}}`)
	d.Dispatch(context.Background(), c, raw)

	if got := len(reg.MembersOf(projectID)); got != 2 {
		t.Fatalf("expected join to add conn to room, got %d members", got)
	}
	frames := c.sent()
	if len(frames) != 1 || frames[0].Type != realtime.TypeJoined {
		t.Fatalf("expected joined ack on originating conn, got %v", frames)
	}
	// The ack never fans out to the room.
	if got := len(other.sent()); got != 0 {
		t.Fatalf("join ack leaked to the room: %d frames", got)
	}
}

func TestDispatch_JoinProjectNonMemberRefused(t *testing.T) {
	reg := realtime.NewRegistry()
	d := newDispatcher(reg, &fakeChat{}, &fakeMembers{member: false}, &fakeUnread{})
	projectID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	c := newFakeConn("c1")
	reg.Admit(c)

	raw := []byte(`{"type":"join-project","projectId":"` + projectID.Hex() + `","data":{"userId":"` + userID.Hex() + `"}}`)
	d.Dispatch(context.Background(), c, raw)

	if got := len(reg.MembersOf(projectID)); got != 0 {
		t.Errorf("non-member joined the room: %d members", got)
	}
	if got := len(c.sent()); got != 0 {
		t.Errorf("refused join must not be acked, got %d frames", got)
	}
	// Connection survives the refused frame.
	if reg.Len() != 1 {
		t.Error("connection was dropped after a refused join")
	}
}

func TestDispatch_ChatMessageFansOutToRoom(t *testing.T) {
	reg := realtime.NewRegistry()
	msgs := &fakeMessages{}
	d := newChatDispatcher(reg, msgs, &fakeMembers{member: true})
	projectID := primitive.NewObjectID()
	senderID := primitive.NewObjectID()

	sender := newFakeConn("sender")
	peer := newFakeConn("peer")
	outsider := newFakeConn("outsider")
	reg.Admit(sender)
	reg.Admit(peer)
	reg.Admit(outsider)
	reg.JoinRoom(sender, projectID)
	reg.JoinRoom(peer, projectID)

	raw := []byte(`{"type":"chat-message","projectId":"` + projectID.Hex() + `","data":{"senderId":"` + senderID.Hex() + `","content":"hello room"}}`)
	d.Dispatch(context.Background(), sender, raw)

	if len(msgs.created) != 1 || msgs.created[0].Content != "hello room" {
		t.Fatalf("expected one persisted message, got %v", msgs.created)
	}
	// Both room members receive the broadcast, sender included.
	for _, c := range []*fakeConn{sender, peer} {
		frames := c.sent()
		if len(frames) != 1 || frames[0].Type != realtime.TypeChatMessage {
			t.Errorf("conn %s: expected chat frame, got %v", c.ID(), frames)
		}
	}
	// Room scope: a connection outside the room sees nothing.
	if got := len(outsider.sent()); got != 0 {
		t.Errorf("outsider received %d frames, want 0", got)
	}
}

func TestDispatch_ChatPersistenceFailureMeansNoBroadcast(t *testing.T) {
	reg := realtime.NewRegistry()
	msgs := &fakeMessages{err: errors.New("db down")}
	d := newChatDispatcher(reg, msgs, &fakeMembers{member: true})
	projectID := primitive.NewObjectID()
	senderID := primitive.NewObjectID()

	c := newFakeConn("c1")
	reg.Admit(c)
	reg.JoinRoom(c, projectID)

	raw := []byte(`{"type":"chat-message","projectId":"` + projectID.Hex() + `","data":{"senderId":"` + senderID.Hex() + `","content":"lost"}}`)
	d.Dispatch(context.Background(), c, raw)

	if got := len(c.sent()); got != 0 {
		t.Fatalf("broadcast happened despite persistence failure: %d frames", got)
	}
	if reg.Len() != 1 {
		t.Error("connection was dropped after an ingest failure")
	}
}

func TestDispatch_MalformedAndUnknownFramesAreDropped(t *testing.T) {
	reg := realtime.NewRegistry()
	d := newDispatcher(reg, &fakeChat{}, &fakeMembers{}, &fakeUnread{})
	c := newFakeConn("c1")
	reg.Admit(c)

	d.Dispatch(context.Background(), c, []byte(`{broken`))
	d.Dispatch(context.Background(), c, []byte(`{"type":"no-such-frame","data":{}}`))

	if got := len(c.sent()); got != 0 {
		t.Errorf("dropped frames must produce no output, got %d", got)
	}
	if reg.Len() != 1 {
		t.Error("connection did not survive dropped frames")
	}
}

func TestRouter_PushToUserReachesAllDevices(t *testing.T) {
	reg := realtime.NewRegistry()
	router := realtime.NewRouter(reg, zap.NewNop())
	userID := primitive.NewObjectID()

	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")
	reg.Admit(c1)
	reg.Admit(c2)
	reg.BindUser(c1, userID)
	reg.BindUser(c2, userID)

	router.PushToUser(userID, realtime.NotificationCountFrame(1))

	for _, c := range []*fakeConn{c1, c2} {
		if got := len(c.sent()); got != 1 {
			t.Errorf("conn %s: expected 1 frame, got %d", c.ID(), got)
		}
	}
}

func TestRouter_SendErrorDoesNotStopFanOut(t *testing.T) {
	reg := realtime.NewRegistry()
	router := realtime.NewRouter(reg, zap.NewNop())
	projectID := primitive.NewObjectID()

	bad := newFakeConn("bad")
	bad.sendErr = errors.New("buffer full")
	good := newFakeConn("good")
	reg.Admit(bad)
	reg.Admit(good)
	reg.JoinRoom(bad, projectID)
	reg.JoinRoom(good, projectID)

	router.BroadcastToRoom(projectID, realtime.TaskFrame(models.Task{ProjectID: projectID}))

	if got := len(good.sent()); got != 1 {
		t.Fatalf("healthy conn missed the broadcast: %d frames", got)
	}
	// The failing conn stays registered; the reaper owns cleanup.
	if reg.Len() != 2 {
		t.Error("fan-out mutated the registry")
	}
}
