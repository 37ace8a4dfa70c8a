package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/remitos/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(remitos *handlers.RemitoHandler, stats *handlers.StatsHandler, logger *zap.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.MaxMultipartMemory = 32 << 20

	api := r.Group("/api")
	api.POST("/remitos/extract", remitos.Extract)
	api.POST("/remitos", remitos.Submit)
	api.POST("/stats", stats.Fetch)
	api.GET("/admin/stats", stats.Overview)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if driver := c.GetHeader(handlers.DriverHeader); driver != "" {
			fields = append(fields, zap.String("driver_id", driver))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
