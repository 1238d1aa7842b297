package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidPeriod is returned when a period selector is not one of the supported values.
var ErrInvalidPeriod = errors.New("invalid reporting period")

// Period is a reporting window selected on the seller dashboard.
type Period string

// Supported reporting periods. The values match the backend path segment.
const (
	PeriodDay   Period = "1day"
	PeriodMonth Period = "30days"
	PeriodYear  Period = "1year"
)

// AllPeriods returns the supported periods in display order.
func AllPeriods() []Period {
	return []Period{PeriodDay, PeriodMonth, PeriodYear}
}

// ParsePeriod validates a raw period selector.
func ParsePeriod(raw string) (Period, error) {
	p := Period(raw)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
	return p, nil
}

// Valid reports whether p is a supported period.
func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodMonth, PeriodYear:
		return true
	default:
		return false
	}
}

// Label returns the human readable name used on period selectors.
func (p Period) Label() string {
	switch p {
	case PeriodDay:
		return "Last 1 Day"
	case PeriodMonth:
		return "Last 30 Days"
	case PeriodYear:
		return "Last 1 Year"
	default:
		return string(p)
	}
}

// String implements fmt.Stringer.
func (p Period) String() string {
	return string(p)
}

// SaleEvent is one recorded sale of a product as returned by the backend.
// It is never mutated after decoding.
type SaleEvent struct {
	QuantitySold      int64           `json:"quantity_sold"`
	QuantityListed    int64           `json:"quantity_listed,omitempty"`
	QuantityRemaining int64           `json:"quantity_remaining,omitempty"`
	PriceAtSale       decimal.Decimal `json:"price_at_sale"`
	SaleDate          time.Time       `json:"sale_date"`
}

// Revenue returns quantity sold times the price at sale.
func (e SaleEvent) Revenue() decimal.Decimal {
	return e.PriceAtSale.Mul(decimal.NewFromInt(e.QuantitySold))
}

// ProductAggregate is a listed product with its sale history for one dashboard fetch.
type ProductAggregate struct {
	Name           string          `json:"name"`
	Category       string          `json:"category,omitempty"`
	QuantityListed int64           `json:"quantity_listed"`
	QuantitySold   int64           `json:"quantity_sold"`
	Price          decimal.Decimal `json:"price"`
	Revenue        decimal.Decimal `json:"revenue"`
	Sales          []SaleEvent     `json:"sales"` // chronological
}

// QuantityRemaining returns listed minus sold, floored at zero.
func (p ProductAggregate) QuantityRemaining() int64 {
	remaining := p.QuantityListed - p.QuantitySold
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SalesAnalysis is the validated payload of the sales-analysis endpoint.
type SalesAnalysis struct {
	TotalSales   int64           `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`

	// Optional totals for the preceding window. When absent the dashboard
	// derives them from the sale histories.
	PreviousTotalSales   *int64           `json:"previous_total_sales,omitempty"`
	PreviousTotalRevenue *decimal.Decimal `json:"previous_total_revenue,omitempty"`

	ProductSales []ProductAggregate `json:"product_sales"`
}

// Events flattens every product's sale history into one slice.
func (a *SalesAnalysis) Events() []SaleEvent {
	if a == nil {
		return nil
	}
	n := 0
	for _, p := range a.ProductSales {
		n += len(p.Sales)
	}
	events := make([]SaleEvent, 0, n)
	for _, p := range a.ProductSales {
		events = append(events, p.Sales...)
	}
	return events
}

// Profile is the signed-in account as reported by the backend.
type Profile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	UserType     string `json:"usertype"`
	ProfileImage string `json:"profile_image"`
}
