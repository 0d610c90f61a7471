package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/proto"
)

// testFrame covers every outbound shape so one struct can decode any frame.
type testFrame struct {
	Type    string          `json:"type"`
	UserID  string          `json:"userId,omitempty"`
	Room    string          `json:"room,omitempty"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Message string          `json:"message,omitempty"`
	Online  int             `json:"online,omitempty"`
	TS      int64           `json:"ts,omitempty"`
}

func wsURL(ts *httptest.Server, token string) string {
	u := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, wsURL(ts, token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) testFrame {
	t.Helper()

	var frame testFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

// connectUser registers a user, dials the socket, and consumes the greeting.
// Returns the connection and the user's wire id.
func connectUser(t *testing.T, ctx context.Context, ts *httptest.Server, authService *auth.Service, username string) (*websocket.Conn, string) {
	t.Helper()

	token := registerTestUser(t, authService, username)
	conn := dialWS(t, ctx, ts, token)

	greeting := readFrame(t, ctx, conn)
	if greeting.Type != "connected" || greeting.UserID == "" {
		t.Fatalf("unexpected greeting: %+v", greeting)
	}
	return conn, greeting.UserID
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocket_RejectsMissingToken(t *testing.T) {
	ts, _, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(ts, ""), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	_, _, err = conn.Read(ctx)
	if err == nil {
		t.Fatalf("expected connection to be closed")
	}
	if got := websocket.CloseStatus(err); got != StatusTokenRequired {
		t.Fatalf("expected close status %d, got %d (%v)", StatusTokenRequired, got, err)
	}
}

func TestWebSocket_RejectsInvalidToken(t *testing.T) {
	ts, _, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(ts, "not-a-token"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	_, _, err = conn.Read(ctx)
	if err == nil {
		t.Fatalf("expected connection to be closed")
	}
	if got := websocket.CloseStatus(err); got != StatusInvalidToken {
		t.Fatalf("expected close status %d, got %d (%v)", StatusInvalidToken, got, err)
	}
}

func TestWebSocket_ConnectedGreeting(t *testing.T) {
	ts, authService, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, userID := connectUser(t, ctx, ts, authService, "alice")
	if userID == "" {
		t.Fatalf("expected a user id in the greeting")
	}
}

func TestWebSocket_JoinAndGroupMessage(t *testing.T) {
	ts, authService, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice, aliceID := connectUser(t, ctx, ts, authService, "alice")
	bob, _ := connectUser(t, ctx, ts, authService, "bob")

	for _, conn := range []*websocket.Conn{alice, bob} {
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: "join", Room: "general"}); err != nil {
			t.Fatalf("write join: %v", err)
		}
		if ack := readFrame(t, ctx, conn); ack.Type != "joined" || ack.Room != "general" {
			t.Fatalf("unexpected join ack: %+v", ack)
		}
	}

	content := json.RawMessage(`"hi there"`)
	if err := wsjson.Write(ctx, alice, proto.Inbound{Type: "group", Room: "general", Content: content}); err != nil {
		t.Fatalf("write group: %v", err)
	}

	got := readFrame(t, ctx, bob)
	if got.Type != "group" || got.From != aliceID || got.Room != "general" {
		t.Fatalf("unexpected group frame: %+v", got)
	}
	if string(got.Content) != `"hi there"` {
		t.Fatalf("unexpected content: %s", got.Content)
	}

	// The sender must not receive its own room message. A ping after the
	// group send proves nothing else was queued first.
	if err := wsjson.Write(ctx, alice, proto.Inbound{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if next := readFrame(t, ctx, alice); next.Type != "pong" {
		t.Fatalf("expected pong, got %+v", next)
	}
}

func TestWebSocket_PrivateMessage(t *testing.T) {
	ts, authService, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice, aliceID := connectUser(t, ctx, ts, authService, "alice")
	bob, bobID := connectUser(t, ctx, ts, authService, "bob")

	content := json.RawMessage(`{"text":"psst"}`)
	if err := wsjson.Write(ctx, alice, proto.Inbound{Type: "private", To: bobID, Content: content}); err != nil {
		t.Fatalf("write private: %v", err)
	}

	got := readFrame(t, ctx, bob)
	if got.Type != "private" || got.From != aliceID || got.To != bobID {
		t.Fatalf("unexpected private frame: %+v", got)
	}
	if got.TS == 0 {
		t.Fatalf("expected a timestamp")
	}
}

func TestWebSocket_PrivateToOfflineUserIsSilent(t *testing.T) {
	ts, authService, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice, _ := connectUser(t, ctx, ts, authService, "alice")

	content := json.RawMessage(`"anyone?"`)
	if err := wsjson.Write(ctx, alice, proto.Inbound{Type: "private", To: "999", Content: content}); err != nil {
		t.Fatalf("write private: %v", err)
	}

	// No error and no ack. The next frame after a ping must be the pong.
	if err := wsjson.Write(ctx, alice, proto.Inbound{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if next := readFrame(t, ctx, alice); next.Type != "pong" {
		t.Fatalf("expected pong, got %+v", next)
	}
}

func TestWebSocket_MalformedFrameValidation(t *testing.T) {
	ts, authService, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice, _ := connectUser(t, ctx, ts, authService, "alice")

	cases := []struct {
		name string
		msg  proto.Inbound
	}{
		{"join without room", proto.Inbound{Type: "join"}},
		{"private without recipient", proto.Inbound{Type: "private", Content: json.RawMessage(`"x"`)}},
		{"group without content", proto.Inbound{Type: "group", Room: "general"}},
		{"unknown type", proto.Inbound{Type: "dance"}},
	}

	for _, tc := range cases {
		if err := wsjson.Write(ctx, alice, tc.msg); err != nil {
			t.Fatalf("%s: write: %v", tc.name, err)
		}
		if got := readFrame(t, ctx, alice); got.Type != "error" || got.Message == "" {
			t.Fatalf("%s: expected error frame, got %+v", tc.name, got)
		}
	}

	// The connection stays open through protocol errors.
	if err := wsjson.Write(ctx, alice, proto.Inbound{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if next := readFrame(t, ctx, alice); next.Type != "pong" {
		t.Fatalf("expected pong, got %+v", next)
	}
}

func TestWebSocket_UnparseableFrameIsDropped(t *testing.T) {
	ts, authService, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice, _ := connectUser(t, ctx, ts, authService, "alice")

	if err := alice.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	if err := wsjson.Write(ctx, alice, proto.Inbound{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if next := readFrame(t, ctx, alice); next.Type != "pong" {
		t.Fatalf("expected pong, got %+v", next)
	}
}
