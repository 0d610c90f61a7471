package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/config"
	"github.com/roomcast/roomcast-server/internal/core"
	"github.com/roomcast/roomcast-server/internal/store"
)

// NewServer builds the HTTP server: account endpoints, presence REST,
// connection event log, and the WebSocket entry point.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	api := NewAPIHandlers(authService, logger)
	presence := NewPresenceHandlers(hub, logger)
	logs := NewLogHandlers(st, logger)
	ws := NewWSHandler(hub, authService, cfg, logger)

	router.GET("/health", healthHandler)
	router.POST("/api/register", api.Register)
	router.POST("/api/login", api.Login)

	// The socket authenticates itself via the token query parameter.
	router.GET("/ws", ws.Handle)

	authorized := router.Group("/api", AuthMiddleware(authService, logger))
	authorized.GET("/ws/users", presence.OnlineUsers)
	authorized.GET("/ws/rooms", presence.Rooms)
	authorized.GET("/ws/stats", presence.Stats)
	authorized.POST("/ws/broadcast", presence.Broadcast)
	authorized.GET("/logs/events", logs.Events)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
}
