package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// LogHandlers serves the persisted connection event log.
type LogHandlers struct {
	store store.EventStore
	log   *zerolog.Logger
}

// NewLogHandlers creates a new log handlers instance.
func NewLogHandlers(st store.EventStore, logger *zerolog.Logger) *LogHandlers {
	return &LogHandlers{store: st, log: logger}
}

// ConnEventResponse represents one event in API responses.
type ConnEventResponse struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	UserID    string `json:"user_id"`
	ConnID    string `json:"conn_id"`
	CreatedAt string `json:"created_at"`
}

// Events lists recent connection lifecycle events, newest first.
// GET /api/logs/events?limit=50
func (h *LogHandlers) Events(c *gin.Context) {
	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxEventLimit {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	events, err := h.store.ListEvents(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list connection events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ConnEventResponse, 0, len(events))
	for _, ev := range events {
		response = append(response, ConnEventResponse{
			ID:        ev.ID,
			Kind:      ev.Kind,
			UserID:    ev.UserID,
			ConnID:    ev.ConnID,
			CreatedAt: ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"events": response})
}
