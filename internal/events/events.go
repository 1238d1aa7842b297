package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Event subjects
const (
	// Published by the backend whenever a buyer purchases a crop.
	SubjectSaleRecorded = "crop.sale.recorded"

	SubjectReportGenerated = "dashboard.report.generated"
)

// SaleRecordedEvent is a purchase recorded by the backend
type SaleRecordedEvent struct {
	SellerID     string          `json:"seller_id"`
	CropID       string          `json:"crop_id"`
	QuantitySold int64           `json:"quantity_sold"`
	PriceAtSale  decimal.Decimal `json:"price_at_sale"`
	SaleDate     time.Time       `json:"sale_date"`
}

// ReportGeneratedEvent announces a freshly built dashboard
type ReportGeneratedEvent struct {
	EventID      uuid.UUID       `json:"event_id"`
	SellerKey    string          `json:"seller_key"`
	Period       string          `json:"period"`
	TotalSales   int64           `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	FromCache    bool            `json:"from_cache"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// Publisher handles publishing events to NATS. A nil Publisher drops events.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher creates a new NATS publisher
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{nc: nc, logger: logger}
}

// PublishReportGenerated publishes a report generated event
func (p *Publisher) PublishReportGenerated(event *ReportGeneratedEvent) error {
	if p == nil || p.nc == nil {
		return nil
	}
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.nc.Publish(SubjectReportGenerated, data)
}
