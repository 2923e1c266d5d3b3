package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/config"
	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/service/messages"
	"github.com/vovakirdan/chatline-server/internal/service/users"
)

// NewServer builds the HTTP server with messaging, user, realtime and
// operational routes.
func NewServer(hub *core.Hub, msgSvc *messages.Service, userSvc *users.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware())

	router.GET("/health", healthHandler)
	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	limiter := NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, CleanupOpts{
		TTL:      3 * cfg.RateLimit.Window,
		Interval: cfg.RateLimit.Window,
	})

	msgHandlers := NewMessageHandlers(msgSvc, logger)
	messaging := router.Group("/messaging")
	messaging.Use(limiter.Middleware(logger))
	{
		messaging.POST("/addMessage", msgHandlers.AddMessage)
		messaging.GET("/getMessages", msgHandlers.GetMessages)
		messaging.GET("/stream", NewSSEHandler(hub, logger).Stream)
	}

	userHandlers := NewUserHandlers(userSvc, logger)
	user := router.Group("/user")
	user.Use(limiter.Middleware(logger))
	{
		user.POST("/signup", userHandlers.Signup)
		user.POST("/login", userHandlers.Login)
		user.GET("/getUser/:username", userHandlers.GetUser)
		user.DELETE("/deleteUser/:username", userHandlers.DeleteUser)
		user.PATCH("/resetPassword", userHandlers.ResetPassword)
	}

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	server := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	server.RegisterOnShutdown(limiter.Stop)
	return server
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
