package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/threadbot-backend/internal/http/handlers"
	"github.com/yungbote/threadbot-backend/internal/http/middleware"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	WebhookHandler *handlers.WebhookHandler
	Mode           string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode == "prod" || cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.AttachTraceContext())
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(middleware.CORS())

	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/healthcheck", handlers.HealthCheck)
	r.POST("/bot/update/:secret", cfg.WebhookHandler.HandleUpdate)

	return r
}
