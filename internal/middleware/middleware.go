// Package middleware holds the gin middleware shared by the HTTP surface.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/domain/backend"
	"github.com/agriconnect/service-dashboard/internal/session"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"

	requestIDKey = "request_id"
	sessionKey   = "session"
)

// RequestID propagates or assigns a request id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the request id assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger logs every request once it completes.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", GetRequestID(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}

// SessionVerifier binds a token-only session to the account it belongs to.
type SessionVerifier interface {
	Verify(ctx context.Context, sess *session.Session, gatewayUserID string) (*session.Session, error)
}

// RequireSession builds the caller's session from the Authorization header
// and aborts with 401 when no token is present. With a verifier, the session
// is bound to the account the backend reports for the token. Without one the
// X-User-ID header is ignored and the session stays keyed by its token.
func RequireSession(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := session.ParseAuthorization(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		sess, err := session.New(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		if verifier != nil {
			verified, err := verifier.Verify(c.Request.Context(), sess, strings.TrimSpace(c.GetHeader(HeaderUserID)))
			if err != nil {
				status, msg := verifyFailure(err)
				_ = c.Error(err)
				c.AbortWithStatusJSON(status, gin.H{"error": msg})
				return
			}
			sess = verified
		}

		c.Set(sessionKey, sess)
		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), sess))
		c.Next()
	}
}

func verifyFailure(err error) (int, string) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized, "Session expired, please sign in again"
	case errors.Is(err, backend.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, backend.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests, try again shortly"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Backend timed out"
	default:
		return http.StatusBadGateway, "Unable to verify session"
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok && sess != nil
}
