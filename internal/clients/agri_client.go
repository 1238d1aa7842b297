package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/domain/backend"
	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/session"
)

const (
	salesAnalysisPath = "/api/crop/dashboard/sales-analysis/%s/"
	profilePath       = "/api/account/profile/"

	maxResponseBytes = 8 << 20
)

// AgriClient handles communication with the agri marketplace backend.
type AgriClient struct {
	baseURL    string
	httpClient *http.Client
	executor   *backend.Executor
	limiter    *backend.RateLimiter
	location   *time.Location
	logger     *zap.Logger
}

// AgriClientConfig configures an AgriClient.
type AgriClientConfig struct {
	BaseURL     string
	Timeout     time.Duration
	RetryPolicy *backend.RetryPolicy
	Limiter     *backend.RateLimiter
	Location    *time.Location // used for sale dates without an offset
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// NewAgriClient creates a new AgriClient
func NewAgriClient(cfg *AgriClientConfig) *AgriClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	return &AgriClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		executor:   backend.NewExecutor(cfg.RetryPolicy),
		limiter:    cfg.Limiter,
		location:   loc,
		logger:     logger,
	}
}

// GetSalesAnalysis fetches and validates the seller's sales analysis for period.
func (c *AgriClient) GetSalesAnalysis(ctx context.Context, sess *session.Session, period models.Period) (*models.SalesAnalysis, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidPeriod, period)
	}

	body, err := c.get(ctx, sess, fmt.Sprintf(salesAnalysisPath, period))
	if err != nil {
		return nil, err
	}

	analysis, err := decodeSalesAnalysis(body, c.location)
	if err != nil {
		c.logger.Warn("Rejected sales analysis payload",
			zap.String("period", period.String()),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("Fetched sales analysis",
		zap.String("period", period.String()),
		zap.Int("products", len(analysis.ProductSales)),
	)
	return analysis, nil
}

// GetProfile fetches the signed-in account.
func (c *AgriClient) GetProfile(ctx context.Context, sess *session.Session) (*models.Profile, error) {
	body, err := c.get(ctx, sess, profilePath)
	if err != nil {
		return nil, err
	}

	var payload profilePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, backend.NewValidationError("$", "malformed JSON: %v", err)
	}
	return payload.toModel(), nil
}

// get performs an authenticated GET with rate limiting and retries.
func (c *AgriClient) get(ctx context.Context, sess *session.Session, path string) ([]byte, error) {
	if sess == nil || sess.Token == "" {
		return nil, session.ErrMissingToken
	}

	var body []byte
	result := c.executor.Execute(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, path); err != nil {
			return err
		}

		var err error
		body, err = c.do(ctx, sess, path)
		if err != nil {
			c.logger.Debug("Backend request failed",
				zap.String("path", path),
				zap.Error(err),
			)
		}
		return err
	})

	if result.LastError != nil {
		if result.Attempts > 1 {
			c.logger.Warn("Backend request failed after retries",
				zap.String("path", path),
				zap.Int("attempts", result.Attempts),
				zap.Duration("duration", result.Duration),
				zap.Error(result.LastError),
			)
		}
		return nil, result.LastError
	}
	return body, nil
}

func (c *AgriClient) do(ctx context.Context, sess *session.Session, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", sess.Authorization())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, backend.NewTransportError(path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, backend.NewTransportError(path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorBody(path, resp.StatusCode, body)
	}
	return body, nil
}

// parseErrorBody maps a non-200 response, reading the DRF {"detail", "code"} shape when present.
func parseErrorBody(path string, status int, body []byte) *backend.APIError {
	var drf struct {
		Detail string `json:"detail"`
		Code   string `json:"code"`
	}
	_ = json.Unmarshal(body, &drf)

	code := backend.CodeForStatus(status)
	if drf.Code == string(backend.CodeTokenInvalid) {
		code = backend.CodeTokenInvalid
	}
	return backend.NewAPIError(path, status, code, drf.Detail)
}

// IsAuthError reports whether err means the caller must sign in again.
func IsAuthError(err error) bool {
	return errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, session.ErrMissingToken)
}
