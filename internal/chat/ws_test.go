package chat

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventhub/internal/auth"
	"eventhub/internal/model"

	"golang.org/x/net/websocket"
)

type wsTestFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func startWS(t *testing.T) (*Broker, *auth.Tokens, *httptest.Server) {
	t.Helper()
	b, _ := newTestBroker(t)
	tokens := auth.NewTokens("test-secret", time.Hour)
	srv := httptest.NewServer(b.Handler(tokens, 8))
	t.Cleanup(srv.Close)
	return b, tokens, srv
}

func dialAs(t *testing.T, srv *httptest.Server, tokens *auth.Tokens, userID int64) *websocket.Conn {
	t.Helper()
	tok, err := tokens.Issue(userID, model.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + tok
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, frameType string, payload map[string]any) {
	t.Helper()
	if err := websocket.JSON.Send(conn, map[string]any{"type": frameType, "payload": payload}); err != nil {
		t.Fatalf("send frame: %v", err)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) messagePayload {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame wsTestFrame
	if err := websocket.JSON.Receive(conn, &frame); err != nil {
		t.Fatalf("receive frame: %v", err)
	}
	if frame.Type != "message" {
		t.Fatalf("frame type = %q, want message", frame.Type)
	}
	var msg messagePayload
	if err := json.Unmarshal(frame.Payload, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return msg
}

func waitMembers(t *testing.T, b *Broker, eventID int64, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.Members(eventID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("members(%d) = %d, want %d", eventID, b.Members(eventID), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	_, _, srv := startWS(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if _, err := websocket.Dial(wsURL, "", srv.URL); err == nil {
		t.Fatal("expected handshake failure without token")
	}
	if _, err := websocket.Dial(wsURL+"?token=forged", "", srv.URL); err == nil {
		t.Fatal("expected handshake failure with forged token")
	}
}

func TestWebSocketRoomBroadcast(t *testing.T) {
	b, tokens, srv := startWS(t)
	ann := dialAs(t, srv, tokens, 1)
	bob := dialAs(t, srv, tokens, 2)

	writeFrame(t, ann, "joinEvent", map[string]any{"eventId": 12})
	writeFrame(t, bob, "joinEvent", map[string]any{"eventId": 12})
	waitMembers(t, b, 12, 2)

	// The token identity wins over the payload userId.
	writeFrame(t, ann, "chatMessage", map[string]any{"eventId": 12, "userId": 2, "message": "hello"})

	for _, conn := range []*websocket.Conn{ann, bob} {
		msg := readMessage(t, conn)
		if msg.Message != "hello" || msg.UserID != 1 || msg.Username != "Ann" || msg.EventID != 12 {
			t.Fatalf("msg = %+v", msg)
		}
	}

	writeFrame(t, bob, "leaveEvent", map[string]any{"eventId": 12})
	waitMembers(t, b, 12, 1)
}

func TestWebSocketDisconnectLeavesRoom(t *testing.T) {
	b, tokens, srv := startWS(t)
	ann := dialAs(t, srv, tokens, 1)

	writeFrame(t, ann, "joinEvent", map[string]any{"eventId": 3})
	waitMembers(t, b, 3, 1)

	_ = ann.Close()
	waitMembers(t, b, 3, 0)
}
