package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agriconnect/service-dashboard/internal/handlers"
	"github.com/agriconnect/service-dashboard/internal/middleware"
)

// RouteConfig holds configuration for routes
type RouteConfig struct {
	DashboardHandler *handlers.DashboardHandler
	SessionHandler   *handlers.SessionHandler
	ReportHandler    *handlers.ReportHandler // nil when the archive is disabled
	Sessions         middleware.SessionVerifier
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *RouteConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "dashboard",
			"time":    time.Now().UTC(),
		})
	})

	// API v1 routes, all carry the seller's bearer token
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireSession(cfg.Sessions))

	v1.GET("/session", cfg.SessionHandler.GetSession)

	dashboard := v1.Group("/dashboard")
	{
		dashboard.GET("/periods", cfg.DashboardHandler.ListPeriods)

		if cfg.ReportHandler != nil {
			dashboard.GET("/reports", cfg.ReportHandler.ListReports)
			dashboard.GET("/reports/:id", cfg.ReportHandler.GetReport)
			dashboard.POST("/:period/reports", cfg.ReportHandler.CreateReport)
		} else {
			dashboard.GET("/reports", archiveDisabled)
			dashboard.GET("/reports/:id", archiveDisabled)
			dashboard.POST("/:period/reports", archiveDisabled)
		}

		dashboard.GET("/:period", cfg.DashboardHandler.GetDashboard)
		dashboard.GET("/:period/trend", cfg.DashboardHandler.GetTrend)
		dashboard.GET("/:period/growth", cfg.DashboardHandler.GetGrowth)
	}
}

func archiveDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report archive is not configured"})
}
