package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/config"
	"github.com/roomcast/roomcast-server/internal/core"
	"github.com/roomcast/roomcast-server/internal/log"
	"github.com/roomcast/roomcast-server/internal/store"
	"github.com/roomcast/roomcast-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// startTestServer wires a hub, store, and auth service into a full HTTP
// server. Heartbeat intervals are stretched so sweeps never fire mid-test.
func startTestServer(t *testing.T) (*httptest.Server, *auth.Service, store.Store) {
	t.Helper()

	logger := log.Discard()
	st := createTestStore(t)
	authService := createTestAuthService(t, st, "test-secret")
	hub := core.NewHub(logger, st)

	cfg := config.Default()
	cfg.HeartbeatTimeout = time.Hour
	cfg.PingInterval = time.Hour
	cfg.StatsInterval = time.Hour

	server := NewServer(hub, authService, st, &cfg, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, authService, st
}

// registerTestUser registers a user and returns a fresh token.
func registerTestUser(t *testing.T, authService *auth.Service, username string) string {
	t.Helper()

	token, err := authService.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	return token
}
