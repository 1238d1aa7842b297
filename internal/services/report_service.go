package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/agriconnect/service-dashboard/internal/analytics"
	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/session"
)

// ReportStore persists dashboard snapshots
type ReportStore interface {
	Create(ctx context.Context, report *models.DashboardReport) error
	ListBySeller(ctx context.Context, sellerKey string, limit int) ([]models.DashboardReport, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.DashboardReport, error)
}

// DashboardProvider builds a dashboard for a session
type DashboardProvider interface {
	GetDashboard(ctx context.Context, sess *session.Session, period models.Period, refresh bool) (*analytics.Dashboard, bool, error)
}

// ReportService archives dashboards a seller explicitly saves
type ReportService struct {
	dashboards DashboardProvider
	store      ReportStore
	logger     *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(dashboards DashboardProvider, store ReportStore, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		dashboards: dashboards,
		store:      store,
		logger:     logger,
	}
}

// SaveReport builds a fresh dashboard for period and stores it.
func (s *ReportService) SaveReport(ctx context.Context, sess *session.Session, period models.Period) (*models.DashboardReport, error) {
	dashboard, _, err := s.dashboards.GetDashboard(ctx, sess, period, true)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(dashboard)
	if err != nil {
		return nil, fmt.Errorf("marshal dashboard: %w", err)
	}

	report := &models.DashboardReport{
		SellerKey:    sess.SellerKey(),
		Period:       period,
		TotalSales:   dashboard.Summary.TotalSales,
		TotalRevenue: dashboard.Summary.TotalRevenue,
		Payload:      datatypes.JSON(payload),
	}
	if err := s.store.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}

	s.logger.Info("Saved dashboard report",
		zap.String("report_id", report.ID.String()),
		zap.String("period", period.String()),
	)
	return report, nil
}

// ListReports returns the session's reports, newest first.
func (s *ReportService) ListReports(ctx context.Context, sess *session.Session, limit int) ([]models.DashboardReport, error) {
	return s.store.ListBySeller(ctx, sess.SellerKey(), limit)
}

// GetReport returns one of the session's reports. Reports of other sellers
// are reported as not found.
func (s *ReportService) GetReport(ctx context.Context, sess *session.Session, id uuid.UUID) (*models.DashboardReport, error) {
	report, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.SellerKey != sess.SellerKey() {
		return nil, models.ErrReportNotFound
	}
	return report, nil
}
