package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Connection lifecycle event kinds handed to the EventRecorder.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventTimedOut     = "timed_out"
)

// EventRecorder persists connection lifecycle events. Calls happen off the
// registry lock and are best-effort.
type EventRecorder interface {
	RecordEvent(ctx context.Context, kind, userID, connID string) error
}

// Stats is a snapshot of the aggregate counters.
type Stats struct {
	OnlineUsers     int `json:"online_users"`
	Connections     int `json:"connections"`
	Rooms           int `json:"rooms"`
	PeakConnections int `json:"peak_connections"`
}

// UserPresence describes one online user for the presence API.
type UserPresence struct {
	UserID      string   `json:"id"`
	Connections int      `json:"connection_count"`
	Rooms       []string `json:"rooms"`
}

// RoomInfo describes one room for the presence API.
type RoomInfo struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Hub owns the presence and room registries. One mutex guards both maps so
// cross-map operations (eviction on disconnect) are atomic: no caller can
// observe a user gone from the presence map but still listed in a room.
type Hub struct {
	log      *zerolog.Logger
	recorder EventRecorder

	mu    sync.Mutex
	users map[string]map[*Connection]struct{}
	rooms map[string]map[string]struct{}
	peak  int
}

// NewHub creates an empty hub. recorder may be nil.
func NewHub(logger *zerolog.Logger, recorder EventRecorder) *Hub {
	return &Hub{
		log:      logger,
		recorder: recorder,
		users:    make(map[string]map[*Connection]struct{}),
		rooms:    make(map[string]map[string]struct{}),
	}
}

// Register adds a connection to its user's presence entry, creating the
// entry if absent, and bumps the peak counter if a new high is reached.
func (h *Hub) Register(c *Connection) {
	h.mu.Lock()
	set, ok := h.users[c.UserID]
	if !ok {
		set = make(map[*Connection]struct{})
		h.users[c.UserID] = set
	}
	set[c] = struct{}{}

	total := 0
	for _, conns := range h.users {
		total += len(conns)
	}
	if total > h.peak {
		h.peak = total
	}
	h.mu.Unlock()

	c.activate()
	h.record(EventConnected, c)
	h.log.Debug().Str("user_id", c.UserID).Str("conn_id", c.ID).Msg("connection registered")
}

// Unregister removes a connection. When the last connection of a user goes,
// the presence entry is deleted and the user is evicted from every room in
// the same critical section, deleting rooms left empty. Returns the rooms
// the user was evicted from. Safe to call more than once; only the first
// call cleans up.
func (h *Hub) Unregister(c *Connection) []string {
	if !c.beginClose() {
		return nil
	}

	var evicted []string
	h.mu.Lock()
	if set, ok := h.users[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.UserID)
			evicted = h.evictLocked(c.UserID)
		}
	}
	h.mu.Unlock()

	c.markClosed()

	kind := EventDisconnected
	if c.timedOut.Load() {
		kind = EventTimedOut
	}
	h.record(kind, c)
	h.log.Debug().Str("user_id", c.UserID).Str("conn_id", c.ID).
		Strs("evicted_rooms", evicted).Msg("connection unregistered")
	return evicted
}

// evictLocked removes the user from every room, deleting rooms left empty.
// Caller holds h.mu.
func (h *Hub) evictLocked(userID string) []string {
	var evicted []string
	for room, members := range h.rooms {
		if _, ok := members[userID]; !ok {
			continue
		}
		delete(members, userID)
		evicted = append(evicted, room)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	return evicted
}

// Join adds the user to a room, creating it lazily. Idempotent: returns
// whether membership actually changed.
func (h *Hub) Join(userID, room string) bool {
	if userID == "" || room == "" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	if _, ok := members[userID]; ok {
		return false
	}
	members[userID] = struct{}{}
	return true
}

// Leave removes the user from a room, deleting the room if it becomes
// empty. Returns whether membership changed.
func (h *Hub) Leave(userID, room string) bool {
	if userID == "" || room == "" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[userID]; !ok {
		return false
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	return true
}

// SendToUser delivers a payload to every open connection of one user,
// independently per connection. Returns whether at least one delivery was
// accepted. Unknown user is a no-op returning false.
func (h *Hub) SendToUser(userID string, payload any) bool {
	h.mu.Lock()
	targets := h.connsOfLocked(userID)
	h.mu.Unlock()

	delivered := false
	for _, c := range targets {
		if c.Reply(payload) {
			delivered = true
		}
	}
	return delivered
}

// SendToRoom fans a payload out to every connection of every member except
// exceptUserID (ignored when empty). Returns whether at least one delivery
// was accepted. Unknown room is a no-op returning false.
func (h *Hub) SendToRoom(room string, payload any, exceptUserID string) bool {
	h.mu.Lock()
	var targets []*Connection
	for userID := range h.rooms[room] {
		if exceptUserID != "" && userID == exceptUserID {
			continue
		}
		targets = append(targets, h.connsOfLocked(userID)...)
	}
	h.mu.Unlock()

	delivered := false
	for _, c := range targets {
		if c.Reply(payload) {
			delivered = true
		}
	}
	return delivered
}

// Broadcast sends a payload to every open connection. Returns the number of
// connections that accepted it.
func (h *Hub) Broadcast(payload any) int {
	h.mu.Lock()
	var targets []*Connection
	for _, conns := range h.users {
		for c := range conns {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if c.Reply(payload) {
			sent++
		}
	}
	return sent
}

// RoomsOf returns every room the user is currently a member of.
func (h *Hub) RoomsOf(userID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var rooms []string
	for room, members := range h.rooms {
		if _, ok := members[userID]; ok {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// Stats returns a snapshot of the aggregate counters.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := 0
	for _, conns := range h.users {
		total += len(conns)
	}
	return Stats{
		OnlineUsers:     len(h.users),
		Connections:     total,
		Rooms:           len(h.rooms),
		PeakConnections: h.peak,
	}
}

// OnlineUsers lists every online user with connection count and rooms.
func (h *Hub) OnlineUsers() []UserPresence {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]UserPresence, 0, len(h.users))
	for userID, conns := range h.users {
		p := UserPresence{UserID: userID, Connections: len(conns), Rooms: []string{}}
		for room, members := range h.rooms {
			if _, ok := members[userID]; ok {
				p.Rooms = append(p.Rooms, room)
			}
		}
		out = append(out, p)
	}
	return out
}

// Rooms lists every room with its member user ids.
func (h *Hub) Rooms() []RoomInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]RoomInfo, 0, len(h.rooms))
	for room, members := range h.rooms {
		info := RoomInfo{Name: room, Members: make([]string, 0, len(members))}
		for userID := range members {
			info.Members = append(info.Members, userID)
		}
		out = append(out, info)
	}
	return out
}

// connections snapshots every registered connection. Used by the heartbeat
// sweep so pings and terminations happen off the lock.
func (h *Hub) connections() []*Connection {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*Connection
	for _, conns := range h.users {
		for c := range conns {
			out = append(out, c)
		}
	}
	return out
}

// connsOfLocked returns the connection set of one user. Caller holds h.mu.
func (h *Hub) connsOfLocked(userID string) []*Connection {
	set, ok := h.users[userID]
	if !ok {
		return nil
	}
	out := make([]*Connection, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// record writes a lifecycle event asynchronously so registry operations
// never wait on storage.
func (h *Hub) record(kind string, c *Connection) {
	if h.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.recorder.RecordEvent(ctx, kind, c.UserID, c.ID); err != nil {
			h.log.Warn().Err(err).Str("kind", kind).Msg("failed to record connection event")
		}
	}()
}
