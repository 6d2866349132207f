package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// NewRouter registers every route on a new engine. mode is a gin mode
// (gin.ReleaseMode, gin.DebugMode or gin.TestMode).
func NewRouter(reports *ReportHandler, mode string) *gin.Engine {
	gin.SetMode(mode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestIDMiddleware())
	engine.Use(LoggingMiddleware())

	api := engine.Group("/api")
	api.GET("/health", Health)

	api.POST("/reports", reports.Submit)
	api.GET("/reports", reports.List)
	api.DELETE("/reports", reports.Reset)
	api.GET("/reports/:id", reports.Get)
	api.GET("/reports/:id/attachment", reports.Attachment)
	api.POST("/reports/:id/attachment/download", reports.Download)

	api.GET("/export", reports.Export)
	api.GET("/overview", reports.Overview)

	return engine
}

// Health handles GET /api/health.
func Health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "ok", "service": "course-monitor", "version": Version})
}
