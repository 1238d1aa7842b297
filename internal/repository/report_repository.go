package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agriconnect/service-dashboard/internal/models"
)

const defaultListLimit = 20

// ReportRepository stores dashboard snapshots
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report
func (r *ReportRepository) Create(ctx context.Context, report *models.DashboardReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// ListBySeller returns a seller's reports, newest first
func (r *ReportRepository) ListBySeller(ctx context.Context, sellerKey string, limit int) ([]models.DashboardReport, error) {
	var reports []models.DashboardReport
	if err := r.listQuery(ctx, sellerKey, limit).Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// GetByID returns one report
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DashboardReport, error) {
	var report models.DashboardReport
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) listQuery(ctx context.Context, sellerKey string, limit int) *gorm.DB {
	if limit <= 0 || limit > 100 {
		limit = defaultListLimit
	}
	return r.db.WithContext(ctx).
		Where("seller_key = ?", sellerKey).
		Order("created_at DESC").
		Limit(limit)
}
