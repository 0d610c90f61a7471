package proto

import (
	"encoding/json"
	"time"
)

// Inbound is a frame coming from the client. All fields except Type are
// optional and validated per message type by the router.
type Inbound struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	To      string          `json:"to,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Inbound message types.
const (
	TypeJoin    = "join"
	TypeLeave   = "leave"
	TypePrivate = "private"
	TypeGroup   = "group"
	TypePing    = "ping"
)

// Connected greets a freshly authenticated connection.
type Connected struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// RoomAck confirms a join or leave back to the sender.
type RoomAck struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// Private is a direct message delivered to every connection of one user.
type Private struct {
	Type    string          `json:"type"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Content json.RawMessage `json:"content"`
	TS      int64           `json:"ts"`
}

// Group is a room message fanned out to every member except the sender.
type Group struct {
	Type    string          `json:"type"`
	From    string          `json:"from"`
	Room    string          `json:"room"`
	Content json.RawMessage `json:"content"`
	TS      int64           `json:"ts"`
}

// Pong answers a client-level ping.
type Pong struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
}

// Error reports a protocol error to the sender. It never closes the connection.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Stats is periodically broadcast so presence UIs can show who is around.
type Stats struct {
	Type   string `json:"type"`
	Online int    `json:"online"`
	TS     int64  `json:"ts"`
}

// Now returns the wire timestamp: milliseconds since the Unix epoch.
func Now() int64 {
	return time.Now().UnixMilli()
}

func NewConnected(userID string) Connected {
	return Connected{Type: "connected", UserID: userID}
}

func NewJoined(room string) RoomAck {
	return RoomAck{Type: "joined", Room: room}
}

func NewLeft(room string) RoomAck {
	return RoomAck{Type: "left", Room: room}
}

func NewPrivate(from, to string, content json.RawMessage) Private {
	return Private{Type: "private", From: from, To: to, Content: content, TS: Now()}
}

func NewGroup(from, room string, content json.RawMessage) Group {
	return Group{Type: "group", From: from, Room: room, Content: content, TS: Now()}
}

func NewPong() Pong {
	return Pong{Type: "pong", TS: Now()}
}

func NewError(message string) Error {
	return Error{Type: "error", Message: message}
}

func NewStats(online int) Stats {
	return Stats{Type: "stats", Online: online, TS: Now()}
}
