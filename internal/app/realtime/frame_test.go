// internal/app/realtime/frame_test.go
package realtime_test

import (
	"encoding/json"
	"testing"

	"github.com/dalemusser/crewhub/internal/app/realtime"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecodeInbound_UserConnect(t *testing.T) {
	raw := []byte(`{"type":"user-connect","data":{"userId":"507f1f77bcf86cd799439011"}}`)

	frame, err := realtime.DecodeInbound(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f, ok := frame.(realtime.UserConnect)
	if !ok {
		t.Fatalf("expected UserConnect, got %T", frame)
	}
	if f.UserID != "507f1f77bcf86cd799439011" {
		t.Errorf("wrong user id: %q", f.UserID)
	}
}

func TestDecodeInbound_ChatMessageCarriesProjectScope(t *testing.T) {
	raw := []byte(`{"type":"chat-message","projectId":"507f1f77bcf86cd799439012","data":{"senderId":"507f1f77bcf86cd799439011","content":"hello"}}`)

	frame, err := realtime.DecodeInbound(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f, ok := frame.(realtime.ChatSend)
	if !ok {
		t.Fatalf("expected ChatSend, got %T", frame)
	}
	if f.ProjectID != "507f1f77bcf86cd799439012" {
		t.Errorf("project scope not taken from envelope: %q", f.ProjectID)
	}
	if f.Content != "hello" {
		t.Errorf("wrong content: %q", f.Content)
	}
}

func TestDecodeInbound_UnknownTypeIsUnrecognized(t *testing.T) {
	raw := []byte(`{"type":"future-feature","data":{}}`)

	frame, err := realtime.DecodeInbound(raw)
	if err != nil {
		t.Fatalf("unknown type must not be an error: %v", err)
	}
	f, ok := frame.(realtime.Unrecognized)
	if !ok {
		t.Fatalf("expected Unrecognized, got %T", frame)
	}
	if f.Type != "future-feature" {
		t.Errorf("wrong type tag: %q", f.Type)
	}
}

func TestDecodeInbound_MalformedJSON(t *testing.T) {
	if _, err := realtime.DecodeInbound([]byte(`{not json`)); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestOutboundEncode_Envelope(t *testing.T) {
	projectID := primitive.NewObjectID()
	m := models.Message{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		SenderID:  primitive.NewObjectID(),
		Content:   "hi there",
	}

	raw, err := realtime.ChatFrame(m).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var env struct {
		Type      string          `json:"type"`
		ProjectID string          `json:"projectId"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != realtime.TypeChatMessage {
		t.Errorf("wrong type tag: %q", env.Type)
	}
	if env.ProjectID != projectID.Hex() {
		t.Errorf("wrong project scope: %q", env.ProjectID)
	}

	var data struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.ID != m.ID.Hex() {
		t.Errorf("message id not carried: %q", data.ID)
	}
	if data.Content != "hi there" {
		t.Errorf("wrong content: %q", data.Content)
	}
}

func TestNotificationCountFrame(t *testing.T) {
	raw, err := realtime.NotificationCountFrame(7).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var env struct {
		Type string `json:"type"`
		Data struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != realtime.TypeNotificationCount {
		t.Errorf("wrong type tag: %q", env.Type)
	}
	if env.Data.Count != 7 {
		t.Errorf("wrong count: %d", env.Data.Count)
	}
}
