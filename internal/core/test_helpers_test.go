package core

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/roomcast/roomcast-server/internal/log"
)

// fakeSink records everything the hub tries to deliver.
type fakeSink struct {
	mu          sync.Mutex
	frames      []any
	pings       int
	terminated  bool
	reject      bool   // when true, Send reports failure
	onTerminate func() // simulates the transport close path
}

func (s *fakeSink) Send(payload any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject {
		return false
	}
	s.frames = append(s.frames, payload)
	return true
}

func (s *fakeSink) Ping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pings++
}

func (s *fakeSink) Terminate(reason string) {
	s.mu.Lock()
	s.terminated = true
	cb := s.onTerminate
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (s *fakeSink) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *fakeSink) pingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pings
}

func (s *fakeSink) wasTerminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// lastFrame returns the most recent frame or nil.
func (s *fakeSink) lastFrame() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func newTestHub() *Hub {
	return NewHub(log.Discard(), nil)
}

// newTestConn registers a fresh connection on the hub.
func newTestConn(h *Hub, id, userID string) (*Connection, *fakeSink) {
	sink := &fakeSink{}
	c := NewConnection(id, userID, "user-"+userID, sink)
	h.Register(c)
	return c, sink
}

func mustFrameType(t *testing.T, frame any) string {
	t.Helper()

	raw, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return envelope.Type
}
