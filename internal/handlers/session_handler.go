package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/middleware"
	"github.com/agriconnect/service-dashboard/internal/services"
)

// SessionHandler exposes the resolved session profile
type SessionHandler struct {
	dashboards *services.DashboardService
	logger     *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(dashboards *services.DashboardService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{dashboards: dashboards, logger: logger}
}

// GetSession returns the caller's profile as seen by the backend
// @Router /api/v1/session [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
		return
	}

	// sessions verified through the profile already carry it
	resolved := sess
	if sess.UserType == "" {
		var err error
		resolved, err = h.dashboards.ResolveSession(c.Request.Context(), sess)
		if err != nil {
			respondError(c, h.logger, "failed to resolve session", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      resolved,
		"is_farmer": resolved.IsFarmer(),
	})
}
