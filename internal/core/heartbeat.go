package core

import (
	"context"
	"time"

	"github.com/roomcast/roomcast-server/internal/proto"
)

// RunHeartbeat sweeps all connections every interval: connections silent
// for longer than timeout are terminated (their cleanup runs through the
// same unregister path as a client close), the rest get a protocol ping to
// elicit a pong and keep idle-connection reapers in intermediaries at bay.
// The interval should be at most half the timeout so a connection gets at
// least one ping before it can expire. Blocks until ctx is cancelled.
func (h *Hub) RunHeartbeat(ctx context.Context, timeout, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			for _, c := range h.connections() {
				if now.Sub(c.LastActive()) > timeout {
					c.timedOut.Store(true)
					h.log.Info().Str("user_id", c.UserID).Str("conn_id", c.ID).
						Msg("terminating idle connection")
					c.sink.Terminate("heartbeat timeout")
					continue
				}
				c.sink.Ping()
			}
		}
	}
}

// RunStatsBroadcast periodically announces the online-user count to every
// connection for presence UIs. Blocks until ctx is cancelled.
func (h *Hub) RunStatsBroadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := h.Stats()
			h.Broadcast(proto.NewStats(st.OnlineUsers))
		}
	}
}
