package app

import (
	"net/http"
	"time"
	"unix_companion/internal/config"
	"unix_companion/internal/middleware"
	"unix_companion/pkg/monitoring"
	"unix_companion/pkg/security"
	"unix_companion/pkg/tracing"

	"github.com/gin-gonic/gin"
)

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Store) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// Shim-facing API
	api := router.Group("/api")
	api.Use(middleware.ShimAuthMiddleware(cfg))
	{
		api.POST("/state", c.state.PutState)
		api.GET("/state/:key", c.state.GetState)
		api.PUT("/page", c.state.PutPage)

		api.GET("/answers", c.answer.Lookup)
		api.GET("/answers/all", c.answer.All)

		api.POST("/login", c.auth.Login)
		api.GET("/session", c.auth.Session)

		api.GET("/notifications", c.notification.List)
	}

	// Tapped pass-through to the platform; the shim points the page's
	// fetch/XHR here.
	upstream := http.StripPrefix("/unix", s.proxy.Handler())
	router.Any("/unix/*path", gin.WrapH(upstream))
}
