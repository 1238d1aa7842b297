package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/analytics"
	"github.com/agriconnect/service-dashboard/internal/middleware"
	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/services"
)

// DashboardHandler serves the seller dashboard
type DashboardHandler struct {
	dashboards *services.DashboardService
	logger     *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboards *services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboards: dashboards,
		logger:     logger,
	}
}

type periodOption struct {
	Value models.Period `json:"value"`
	Label string        `json:"label"`
}

type dashboardResponse struct {
	*analytics.Dashboard
	FromCache bool `json:"from_cache"`
}

// ListPeriods returns the selectable reporting periods
// @Router /api/v1/dashboard/periods [get]
func (h *DashboardHandler) ListPeriods(c *gin.Context) {
	periods := models.AllPeriods()
	options := make([]periodOption, 0, len(periods))
	for _, p := range periods {
		options = append(options, periodOption{Value: p, Label: p.Label()})
	}
	c.JSON(http.StatusOK, gin.H{"periods": options, "default": models.PeriodMonth})
}

// GetDashboard returns the full dashboard for a period
// @Param period path string true "1day, 30days or 1year"
// @Param refresh query bool false "Bypass the cache"
// @Router /api/v1/dashboard/{period} [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	dashboard, fromCache, ok := h.build(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dashboardResponse{Dashboard: dashboard, FromCache: fromCache})
}

// GetTrend returns only the sales trend chart
// @Router /api/v1/dashboard/{period}/trend [get]
func (h *DashboardHandler) GetTrend(c *gin.Context) {
	dashboard, fromCache, ok := h.build(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"period":     dashboard.Period,
		"trend":      dashboard.Trend,
		"from_cache": fromCache,
	})
}

// GetGrowth returns only the growth metrics
// @Router /api/v1/dashboard/{period}/growth [get]
func (h *DashboardHandler) GetGrowth(c *gin.Context) {
	dashboard, fromCache, ok := h.build(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"period":                dashboard.Period,
		"summary":               dashboard.Summary,
		"sales_growth":          dashboard.SalesGrowth,
		"revenue_growth":        dashboard.RevenueGrowth,
		"sales_growth_source":   dashboard.SalesGrowthSource,
		"revenue_growth_source": dashboard.RevenueGrowthSource,
		"from_cache":            fromCache,
	})
}

func (h *DashboardHandler) build(c *gin.Context) (*analytics.Dashboard, bool, bool) {
	period, err := models.ParsePeriod(c.Param("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period, expected one of 1day, 30days, 1year"})
		return nil, false, false
	}

	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
		return nil, false, false
	}

	refresh := c.Query("refresh") == "true"
	dashboard, fromCache, err := h.dashboards.GetDashboard(c.Request.Context(), sess, period, refresh)
	if err != nil {
		respondError(c, h.logger, "failed to build dashboard", err)
		return nil, false, false
	}
	return dashboard, fromCache, true
}
