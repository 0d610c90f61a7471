package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/core"
)

// PresenceHandlers exposes the hub's live state over REST.
type PresenceHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewPresenceHandlers creates a new presence handlers instance.
func NewPresenceHandlers(hub *core.Hub, logger *zerolog.Logger) *PresenceHandlers {
	return &PresenceHandlers{hub: hub, log: logger}
}

// OnlineUsers lists online users with connection counts and rooms.
// GET /api/ws/users
func (h *PresenceHandlers) OnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.hub.OnlineUsers()})
}

// Rooms lists rooms with their members.
// GET /api/ws/rooms
func (h *PresenceHandlers) Rooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.hub.Rooms()})
}

// Stats returns the aggregate counters.
// GET /api/ws/stats
func (h *PresenceHandlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stats": h.hub.Stats()})
}

// BroadcastRequest represents the broadcast request body. Message must be a
// JSON object; it is delivered as-is plus sender metadata.
type BroadcastRequest struct {
	Message json.RawMessage `json:"message" binding:"required"`
}

// BroadcastResponse reports how many connections accepted the broadcast.
type BroadcastResponse struct {
	Recipients int `json:"recipients"`
}

// Broadcast sends an arbitrary payload to every open connection.
// POST /api/ws/broadcast
func (h *PresenceHandlers) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid broadcast request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(req.Message, &payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message must be a JSON object"})
		return
	}

	if userID, exists := c.Get(ContextKeyUserID); exists {
		payload["broadcast_by"] = userID
	}
	payload["broadcast_at"] = time.Now().UTC().Format(time.RFC3339)

	sent := h.hub.Broadcast(payload)
	h.log.Info().Int("recipients", sent).Msg("admin broadcast sent")
	c.JSON(http.StatusOK, BroadcastResponse{Recipients: sent})
}
