// Package analytics derives dashboard structures from raw sales data:
// time buckets, growth metrics and chart series.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agriconnect/service-dashboard/internal/models"
)

// Window is an inclusive time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in [Start, End].
func (w Window) Contains(t time.Time) bool {
	if w.Start.IsZero() && w.End.IsZero() {
		return false
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowFor returns the reporting window of period ending at now.
// Windows are aligned to whole slots so every bucket label inside a window
// is unique:
//   - 1day covers the current hour and the 23 before it
//   - 30days covers today and the 29 days before it
//   - 1year covers today and the preceding days back to the same date last year, exclusive
//
// The 1day window is therefore up to 59 minutes shorter than a rolling 24
// hours: at 14:30 it starts at 15:00 yesterday, so a sale at 14:50 yesterday
// would share the "14" label with today. Such sales fall into PreviousWindow
// and still count towards growth.
func WindowFor(period models.Period, now time.Time, loc *time.Location) Window {
	loc = location(loc)
	now = now.In(loc)

	var start time.Time
	switch period {
	case models.PeriodDay:
		start = slotStart(period, now, loc).Add(-23 * time.Hour)
	case models.PeriodMonth:
		start = midnight(now, loc).AddDate(0, 0, -29)
	case models.PeriodYear:
		start = midnight(now, loc).AddDate(-1, 0, 1)
	default:
		return Window{}
	}
	return Window{Start: start, End: now}
}

// PreviousWindow returns the window of the same length that ends right
// before WindowFor(period, now, loc) starts.
func PreviousWindow(period models.Period, now time.Time, loc *time.Location) Window {
	current := WindowFor(period, now, loc)
	if current.Start.IsZero() {
		return Window{}
	}

	var start time.Time
	switch period {
	case models.PeriodDay:
		start = current.Start.Add(-24 * time.Hour)
	case models.PeriodMonth:
		start = current.Start.AddDate(0, 0, -30)
	case models.PeriodYear:
		start = current.Start.AddDate(-1, 0, 0)
	}
	return Window{Start: start, End: current.Start.Add(-time.Nanosecond)}
}

// Label returns the bucket label of t for period: a two digit hour for
// 1day, month/day for the longer periods.
func Label(period models.Period, t time.Time, loc *time.Location) string {
	t = t.In(location(loc))
	if period == models.PeriodDay {
		return fmt.Sprintf("%02d", t.Hour())
	}
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}

// Bucket is one aggregation slot.
type Bucket struct {
	Label    string    `json:"label"`
	Start    time.Time `json:"start"`
	Quantity int64     `json:"quantity"`
}

// BucketMap maps a time label to its accumulated quantity.
type BucketMap map[string]Bucket

// Add accumulates qty into the bucket for label, creating it at zero first.
func (m BucketMap) Add(label string, start time.Time, qty int64) {
	b, ok := m[label]
	if !ok {
		b = Bucket{Label: label, Start: start}
	} else if start.Before(b.Start) {
		b.Start = start
	}
	b.Quantity += qty
	m[label] = b
}

// Sorted returns the buckets in chronological order of their slot start.
func (m BucketMap) Sorted() []Bucket {
	buckets := make([]Bucket, 0, len(m))
	for _, b := range m {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Start.Equal(buckets[j].Start) {
			return buckets[i].Label < buckets[j].Label
		}
		return buckets[i].Start.Before(buckets[j].Start)
	})
	return buckets
}

// Labels returns the labels in chronological order.
func (m BucketMap) Labels() []string {
	sorted := m.Sorted()
	labels := make([]string, len(sorted))
	for i, b := range sorted {
		labels[i] = b.Label
	}
	return labels
}

// Total sums the quantity of every bucket.
func (m BucketMap) Total() int64 {
	var total int64
	for _, b := range m {
		total += b.Quantity
	}
	return total
}

// BucketSales groups events that fall into the period window ending at now.
// Events outside the window are dropped.
func BucketSales(events []models.SaleEvent, period models.Period, now time.Time, loc *time.Location) BucketMap {
	buckets := make(BucketMap)
	if !period.Valid() {
		return buckets
	}

	loc = location(loc)
	window := WindowFor(period, now, loc)
	for _, e := range events {
		if !window.Contains(e.SaleDate) {
			continue
		}
		buckets.Add(Label(period, e.SaleDate, loc), slotStart(period, e.SaleDate, loc), e.QuantitySold)
	}
	return buckets
}

// BucketProducts buckets the sale histories of all products together.
func BucketProducts(products []models.ProductAggregate, period models.Period, now time.Time, loc *time.Location) BucketMap {
	analysis := models.SalesAnalysis{ProductSales: products}
	return BucketSales(analysis.Events(), period, now, loc)
}

// SumQuantity sums quantity sold over events inside w.
func SumQuantity(events []models.SaleEvent, w Window) int64 {
	var total int64
	for _, e := range events {
		if w.Contains(e.SaleDate) {
			total += e.QuantitySold
		}
	}
	return total
}

// SumRevenue sums quantity times price over events inside w.
func SumRevenue(events []models.SaleEvent, w Window) decimal.Decimal {
	total := decimal.Zero
	for _, e := range events {
		if w.Contains(e.SaleDate) {
			total = total.Add(e.Revenue())
		}
	}
	return total
}

func slotStart(period models.Period, t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	if period == models.PeriodDay {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	}
	return midnight(t, loc)
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
