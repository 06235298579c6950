package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"realtime-events/internal/config"
	"realtime-events/internal/events"
	"realtime-events/internal/middleware"
)

// NewRouter assembles the full HTTP surface. Health stays outside the auth
// gate; everything else requires a verified caller.
func NewRouter(cfg *config.Config, log *zap.Logger, manager *events.Manager, service, version string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	health := NewHealthHandler(service, version)
	r.GET("/api/health", health.Check)

	auth := middleware.NewAuth(cfg, log)
	chat := NewChatHandler(manager, log)

	api := r.Group("/api", auth.Middleware())
	api.GET("/user/me", Me)
	api.GET("/users", chat.ActiveUsers)
	api.POST("/messages", chat.SendMessage)
	api.GET("/ws", chat.Attach)

	return r
}
