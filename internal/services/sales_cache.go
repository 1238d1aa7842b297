package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/events"
	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/session"
)

const (
	salesCachePrefix     = "dashboard:sales"
	invalidateTimeout    = 5 * time.Second
	defaultSalesCacheTTL = 2 * time.Minute
)

// SalesCache caches validated sales analyses per seller and period.
// A SalesCache without a redis client is a no-op.
type SalesCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// CachedSales is the cached payload
type CachedSales struct {
	Analysis *models.SalesAnalysis `json:"analysis"`
	CachedAt time.Time             `json:"cached_at"`
}

// NewSalesCache creates a new sales cache
func NewSalesCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *SalesCache {
	if ttl <= 0 {
		ttl = defaultSalesCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(sellerKey string, period models.Period) string {
	return fmt.Sprintf("%s:%s:%s", salesCachePrefix, sellerKey, period)
}

// Get retrieves a cached analysis. A miss or any cache failure returns nil.
func (s *SalesCache) Get(ctx context.Context, sellerKey string, period models.Period) *CachedSales {
	if s == nil || s.redis == nil {
		return nil
	}

	key := cacheKey(sellerKey, period)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to get sales analysis from cache", zap.Error(err), zap.String("key", key))
		}
		return nil
	}

	var cached CachedSales
	if err := json.Unmarshal(data, &cached); err != nil || cached.Analysis == nil {
		s.logger.Warn("failed to unmarshal cached sales analysis", zap.Error(err), zap.String("key", key))
		return nil
	}

	s.logger.Debug("cache hit for sales analysis", zap.String("key", key))
	return &cached
}

// Set stores an analysis in the cache
func (s *SalesCache) Set(ctx context.Context, sellerKey string, period models.Period, analysis *models.SalesAnalysis) error {
	if s == nil || s.redis == nil {
		return nil
	}

	key := cacheKey(sellerKey, period)
	data, err := json.Marshal(&CachedSales{Analysis: analysis, CachedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal cached sales: %w", err)
	}

	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to set sales analysis in cache", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}

// Invalidate removes every cached period of a seller
func (s *SalesCache) Invalidate(ctx context.Context, sellerKey string) error {
	if s == nil || s.redis == nil {
		return nil
	}

	keys := make([]string, 0, len(models.AllPeriods()))
	for _, p := range models.AllPeriods() {
		keys = append(keys, cacheKey(sellerKey, p))
	}

	removed, err := s.redis.Del(ctx, keys...).Result()
	if err != nil {
		s.logger.Warn("failed to invalidate sales cache", zap.Error(err), zap.String("seller", sellerKey))
		return err
	}
	s.logger.Debug("invalidated sales cache", zap.String("seller", sellerKey), zap.Int64("keys_removed", removed))
	return nil
}

// HandleSaleRecorded drops the seller's cached analyses when the backend records a sale.
func (s *SalesCache) HandleSaleRecorded(event *events.SaleRecordedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()
	return s.Invalidate(ctx, session.UserSellerKey(event.SellerID))
}
