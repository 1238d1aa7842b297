package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/analytics"
	"github.com/agriconnect/service-dashboard/internal/events"
	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/session"
)

// SalesFetcher loads the seller's sales analysis for a period.
type SalesFetcher interface {
	GetSalesAnalysis(ctx context.Context, sess *session.Session, period models.Period) (*models.SalesAnalysis, error)
}

// ProfileFetcher loads the signed-in account.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, sess *session.Session) (*models.Profile, error)
}

// DashboardServiceConfig holds dashboard build settings
type DashboardServiceConfig struct {
	Location *time.Location
	Now      func() time.Time
}

// DashboardService builds dashboards for HTTP requests
type DashboardService struct {
	sales     SalesFetcher
	profiles  ProfileFetcher
	cache     *SalesCache
	publisher *events.Publisher
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewDashboardService creates a new dashboard service. cache and publisher may be nil.
func NewDashboardService(
	sales SalesFetcher,
	profiles ProfileFetcher,
	cache *SalesCache,
	publisher *events.Publisher,
	cfg *DashboardServiceConfig,
	logger *zap.Logger,
) *DashboardService {
	if cfg == nil {
		cfg = &DashboardServiceConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &DashboardService{
		sales:     sales,
		profiles:  profiles,
		cache:     cache,
		publisher: publisher,
		location:  loc,
		now:       now,
		logger:    logger,
	}
}

// GetDashboard builds the dashboard of period. The boolean reports whether
// the sales analysis came from the cache; refresh skips the cache.
func (s *DashboardService) GetDashboard(ctx context.Context, sess *session.Session, period models.Period, refresh bool) (*analytics.Dashboard, bool, error) {
	if !period.Valid() {
		return nil, false, fmt.Errorf("%w: %q", models.ErrInvalidPeriod, period)
	}

	sellerKey := sess.SellerKey()
	var (
		analysis  *models.SalesAnalysis
		fromCache bool
	)

	if !refresh {
		if cached := s.cache.Get(ctx, sellerKey, period); cached != nil {
			analysis = cached.Analysis
			fromCache = true
		}
	}

	if analysis == nil {
		var err error
		analysis, err = s.sales.GetSalesAnalysis(ctx, sess, period)
		if err != nil {
			return nil, false, fmt.Errorf("fetch sales analysis: %w", err)
		}
		_ = s.cache.Set(ctx, sellerKey, period, analysis)
	}

	dashboard := analytics.Build(analysis, period, analytics.BuildOptions{
		Now:      s.now(),
		Location: s.location,
	})
	if dashboard.SalesGrowthSource == analytics.GrowthSourceSaleHistory || dashboard.RevenueGrowthSource == analytics.GrowthSourceSaleHistory {
		s.logger.Debug("Backend omitted previous totals, growth derived from sale history",
			zap.String("period", period.String()),
			zap.String("sales_growth_source", string(dashboard.SalesGrowthSource)),
			zap.String("revenue_growth_source", string(dashboard.RevenueGrowthSource)),
		)
	}

	if err := s.publisher.PublishReportGenerated(&events.ReportGeneratedEvent{
		SellerKey:    sellerKey,
		Period:       period.String(),
		TotalSales:   dashboard.Summary.TotalSales,
		TotalRevenue: dashboard.Summary.TotalRevenue,
		FromCache:    fromCache,
		GeneratedAt:  dashboard.GeneratedAt,
	}); err != nil {
		s.logger.Warn("Failed to publish report generated event", zap.Error(err))
	}

	s.logger.Debug("Built dashboard",
		zap.String("period", period.String()),
		zap.Bool("from_cache", fromCache),
		zap.Int("buckets", len(dashboard.Buckets)),
	)
	return dashboard, fromCache, nil
}

// ResolveSession fills the session's profile fields from the backend.
func (s *DashboardService) ResolveSession(ctx context.Context, sess *session.Session) (*session.Session, error) {
	if s.profiles == nil {
		return sess, nil
	}
	profile, err := s.profiles.GetProfile(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return sess.WithProfile(profile), nil
}
