package core

import (
	"sync/atomic"
	"time"
)

// State tracks a connection through its lifecycle:
// connecting -> authenticated -> active -> closing -> closed.
// The connecting phase happens on the raw socket before a Connection
// exists; a Connection is only created once the handshake token checks out.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateClosing
	StateClosed
)

// Sink is the transport side of a connection. Implementations must not
// block: Send queues a frame and reports whether it was accepted, Ping
// fires a protocol-level ping, Terminate abruptly closes the socket.
type Sink interface {
	Send(payload any) bool
	Ping()
	Terminate(reason string)
}

// Connection is one live socket bound to exactly one user for its lifetime.
type Connection struct {
	ID       string
	UserID   string
	Username string

	sink       Sink
	state      atomic.Int32
	lastActive atomic.Int64 // unix nanos
	timedOut   atomic.Bool
}

// NewConnection builds a connection that has passed handshake authentication.
func NewConnection(id, userID, username string, sink Sink) *Connection {
	c := &Connection{
		ID:       id,
		UserID:   userID,
		Username: username,
		sink:     sink,
	}
	c.state.Store(int32(StateAuthenticated))
	c.Touch()
	return c
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

// Touch refreshes the activity timestamp. Called on every inbound frame
// and on every pong.
func (c *Connection) Touch() {
	c.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the time of the last inbound frame or pong.
func (c *Connection) LastActive() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

func (c *Connection) activate() {
	c.state.CompareAndSwap(int32(StateAuthenticated), int32(StateActive))
}

// beginClose transitions to closing exactly once. The winner runs cleanup.
func (c *Connection) beginClose() bool {
	for {
		s := c.state.Load()
		if State(s) == StateClosing || State(s) == StateClosed {
			return false
		}
		if c.state.CompareAndSwap(s, int32(StateClosing)) {
			return true
		}
	}
}

func (c *Connection) markClosed() {
	c.state.Store(int32(StateClosed))
}

// Reply queues a payload for delivery on this connection only. Failures
// are swallowed: a dead or slow socket must never affect other recipients.
func (c *Connection) Reply(payload any) bool {
	if c.State() >= StateClosing {
		return false
	}
	return c.sink.Send(payload)
}
