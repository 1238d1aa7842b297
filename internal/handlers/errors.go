package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/domain/backend"
	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/session"
)

// statusFor maps domain errors to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidPeriod):
		return http.StatusBadRequest, "Invalid period, expected one of 1day, 30days, 1year"
	case errors.Is(err, session.ErrMissingToken), errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized, "Session expired, please sign in again"
	case errors.Is(err, backend.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, models.ErrReportNotFound):
		return http.StatusNotFound, "Report not found"
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, backend.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests, try again shortly"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Backend timed out"
	case errors.Is(err, backend.ErrInvalidResponse),
		errors.Is(err, backend.ErrServiceUnavailable),
		errors.Is(err, backend.ErrInvalidRequest):
		return http.StatusBadGateway, "Backend unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// respondError logs err and writes the mapped {"error": ...} response.
func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status, public := statusFor(err)
	fields := []zap.Field{zap.Error(err), zap.Int("status", status)}
	if status >= http.StatusInternalServerError {
		logger.Error(msg, fields...)
		_ = c.Error(err)
	} else {
		logger.Warn(msg, fields...)
	}
	c.JSON(status, gin.H{"error": public})
}
