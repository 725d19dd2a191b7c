// Package api implements the HTTP API for the backlink monitoring service.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkforge/linkwatch/internal/api/middleware"
	"github.com/linkforge/linkwatch/internal/config"
	"github.com/linkforge/linkwatch/internal/logger"
)

// readHeaderTimeout bounds reading request headers.
const readHeaderTimeout = 10 * time.Second

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(
	log logger.Interface,
	backlinks *BacklinksHandler,
	cronHandler *CronHandler,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	security := middleware.NewSecurityMiddleware(cfg.Server.APIKey, log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Scheduled batch trigger, gated by a shared secret instead of the
	// interactive API key.
	router.GET("/cron/backlinks-monitor", cronHandler.RunBatch)

	v1 := router.Group("/api/v1")
	v1.Use(security.Middleware())

	v1.POST("/backlinks", backlinks.Create)
	v1.GET("/backlinks", backlinks.List)
	v1.GET("/backlinks/stats", backlinks.Stats)
	v1.GET("/backlinks/:id", backlinks.Get)
	v1.DELETE("/backlinks/:id", backlinks.Delete)
	v1.GET("/backlinks/:id/logs", backlinks.Logs)
	v1.POST("/backlinks/:id/verify", backlinks.Verify)
	v1.POST("/backlinks/:id/monitor", backlinks.Monitor)

	return router
}

// NewHTTPServer builds the HTTP server with the configured timeouts.
func NewHTTPServer(router *gin.Engine, cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// loggingMiddleware creates a middleware that logs HTTP requests.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		log.Info("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// corsMiddleware adds CORS headers to allow dashboard access.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept-Encoding, Authorization, "+
				"accept, origin, Cache-Control, X-Requested-With, X-API-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
