package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat-server/internal/auth"
	"github.com/vovakirdan/socialchat-server/internal/config"
	"github.com/vovakirdan/socialchat-server/internal/service/friends"
	"github.com/vovakirdan/socialchat-server/internal/store"
)

// NewServer builds the HTTP server with the WebSocket endpoint and REST API.
func NewServer(hub Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler(hub))
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, cfg, logger)))

	apiHandlers := NewAPIHandlers(authService, logger)
	friendsHandlers := NewFriendsHandlers(friends.New(st), logger)
	groupHandlers := NewGroupHandlers(st, hub, logger)

	api := router.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	authed := api.Group("")
	authed.Use(AuthMiddleware(authService, logger))
	authed.POST("/friends/block", friendsHandlers.Block)
	authed.GET("/chat/history/:peerId", friendsHandlers.History)

	authed.POST("/groups", groupHandlers.CreateGroup)
	authed.PUT("/groups/:groupId/invitation", groupHandlers.RespondInvitation)
	authed.PUT("/groups/:groupId/name", groupHandlers.Rename)
	authed.PUT("/groups/:groupId/theme", groupHandlers.SetTheme)
	authed.POST("/groups/:groupId/leave", groupHandlers.Leave)
	authed.DELETE("/groups/:groupId", groupHandlers.Disband)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Online int    `json:"online"`
}

func healthHandler(hub Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "ok", Online: hub.Online()})
	}
}
