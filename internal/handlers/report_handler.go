package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/middleware"
	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/services"
)

// ReportHandler handles archived dashboard reports
type ReportHandler struct {
	reports *services.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// CreateReport archives the current dashboard of a period
// @Router /api/v1/dashboard/{period}/reports [post]
func (h *ReportHandler) CreateReport(c *gin.Context) {
	period, err := models.ParsePeriod(c.Param("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period, expected one of 1day, 30days, 1year"})
		return
	}
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
		return
	}

	report, err := h.reports.SaveReport(c.Request.Context(), sess, period)
	if err != nil {
		respondError(c, h.logger, "failed to save report", err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ListReports lists the caller's archived reports
// @Param limit query int false "Maximum number of reports"
// @Router /api/v1/dashboard/reports [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	reports, err := h.reports.ListReports(c.Request.Context(), sess, limit)
	if err != nil {
		respondError(c, h.logger, "failed to list reports", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}

// GetReport returns one archived report
// @Router /api/v1/dashboard/reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
		return
	}

	report, err := h.reports.GetReport(c.Request.Context(), sess, id)
	if err != nil {
		respondError(c, h.logger, "failed to get report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}
