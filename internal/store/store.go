package store

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// ConnEvent is a persisted connection lifecycle event.
type ConnEvent struct {
	ID        int64
	Kind      string
	UserID    string
	ConnID    string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// EventStore records connection lifecycle events for the logs API.
type EventStore interface {
	// RecordEvent persists a connect/disconnect/timeout event.
	RecordEvent(ctx context.Context, kind, userID, connID string) error

	// ListEvents returns the most recent events, newest first.
	ListEvents(ctx context.Context, limit int) ([]*ConnEvent, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	EventStore

	// Close closes the underlying database connection.
	Close() error
}
