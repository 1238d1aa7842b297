package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrReportNotFound is returned when a report does not exist or belongs to another seller.
var ErrReportNotFound = errors.New("dashboard report not found")

// DashboardReport is a dashboard snapshot a seller chose to keep.
type DashboardReport struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SellerKey    string          `gorm:"size:128;not null;index:idx_dashboard_reports_seller" json:"-"`
	Period       Period          `gorm:"size:16;not null" json:"period"`
	TotalSales   int64           `gorm:"not null;default:0" json:"total_sales"`
	TotalRevenue decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_revenue"`
	Payload      datatypes.JSON  `gorm:"type:jsonb" json:"payload"`
	CreatedAt    time.Time       `gorm:"index:idx_dashboard_reports_seller" json:"created_at"`
}

// TableName overrides the gorm table name.
func (DashboardReport) TableName() string {
	return "dashboard_reports"
}

// BeforeCreate assigns an ID when the caller did not.
func (r *DashboardReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
