package http

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/config"
	"github.com/roomcast/roomcast-server/internal/core"
	"github.com/roomcast/roomcast-server/internal/proto"
)

// Handshake close codes, one per failure cause.
const (
	StatusTokenRequired websocket.StatusCode = 4001
	StatusInvalidToken  websocket.StatusCode = 4002
	StatusInternalError websocket.StatusCode = 4003
)

const writeTimeout = 10 * time.Second

// WSHandler upgrades HTTP connections, authenticates them, and bridges
// them into the hub.
type WSHandler struct {
	hub  *core.Hub
	auth *auth.Service
	cfg  *config.Config
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, auth: authService, cfg: cfg, log: logger}
}

// Handle serves one WebSocket connection from handshake to close. Every
// per-connection failure ends here; nothing propagates to other connections.
func (h *WSHandler) Handle(c *gin.Context) {
	r := c.Request

	conn, err := websocket.Accept(c.Writer, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(StatusInternalError, "internal error")

	// Token comes with the handshake; there is no in-band authentication
	// afterwards.
	token := r.URL.Query().Get("token")
	if token == "" {
		conn.Close(StatusTokenRequired, "token required")
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("ws token rejected")
		conn.Close(StatusInvalidToken, "invalid token")
		return
	}

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sink := newWSSink(ctx, conn, h.log)
	userID := strconv.FormatInt(claims.UserID, 10)
	client := core.NewConnection(uuid.NewString(), userID, claims.Username, sink)
	sink.onPong = client.Touch

	h.hub.Register(client)
	go sink.run(ctx)

	sink.Send(proto.NewConnected(userID))

	err = h.readLoop(ctx, conn, client)
	cancel()
	h.hub.Unregister(client)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			h.log.Debug().Err(err).Str("user_id", userID).Msg("ws connection closed with error")
		}
	}
	conn.Close(status, reason)
}

// readLoop consumes frames until the socket dies. Unparseable frames are
// dropped silently; everything else goes through the router.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Connection) error {
	limiter := newMessageLimiter(h.cfg.MessageRateLimit)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		client.Touch()

		if !limiter.allow(time.Now()) {
			client.Reply(proto.NewError("rate limit exceeded"))
			continue
		}

		var msg proto.Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.Debug().Err(err).Str("user_id", client.UserID).Msg("dropping unparseable frame")
			continue
		}
		if msg.Type == "" {
			h.log.Debug().Str("user_id", client.UserID).Msg("dropping frame without type")
			continue
		}

		h.hub.Route(client, msg)
	}
}
