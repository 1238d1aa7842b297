package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agriconnect/service-dashboard/internal/models"
)

func sampleAnalysis() *models.SalesAnalysis {
	price := decimal.NewFromInt(20)
	return &models.SalesAnalysis{
		TotalSales:   12,
		TotalRevenue: decimal.NewFromInt(240),
		ProductSales: []models.ProductAggregate{
			{
				Name:           "Wheat",
				Category:       "Grains",
				QuantityListed: 100,
				QuantitySold:   10,
				Price:          price,
				Sales: []models.SaleEvent{
					{QuantitySold: 4, PriceAtSale: price, SaleDate: testNow.AddDate(0, 0, -40)},
					{QuantitySold: 6, PriceAtSale: price, SaleDate: testNow.AddDate(0, 0, -2)},
					{QuantitySold: 4, PriceAtSale: price, SaleDate: testNow.AddDate(0, 0, -1)},
				},
			},
			{
				Name:           "Tomato",
				Category:       "Vegetables",
				QuantityListed: 5,
				QuantitySold:   2,
				Price:          price,
				Sales: []models.SaleEvent{
					{QuantitySold: 2, PriceAtSale: price, SaleDate: testNow.Add(-3 * time.Hour)},
				},
			},
			{
				Name:           "Seeds",
				QuantityListed: 3,
				Price:          price,
			},
		},
	}
}

func TestBuildDashboard(t *testing.T) {
	d := Build(sampleAnalysis(), models.PeriodMonth, BuildOptions{Now: testNow, Location: time.UTC})

	if d.Summary.TotalSales != 12 || !d.Summary.TotalRevenue.Equal(decimal.NewFromInt(240)) {
		t.Errorf("Unexpected summary %+v", d.Summary)
	}

	// previous window holds the 4 units sold 40 days ago: (12-4)/4 = +200%
	if d.SalesGrowth.Value != 200 || d.SalesGrowth.Sign != SignPositive {
		t.Errorf("Unexpected sales growth %+v", d.SalesGrowth)
	}
	// previous revenue 80: (240-80)/80 = +200%
	if d.RevenueGrowth.Value != 200 {
		t.Errorf("Unexpected revenue growth %+v", d.RevenueGrowth)
	}
	if d.SalesGrowthSource != GrowthSourceSaleHistory || d.RevenueGrowthSource != GrowthSourceSaleHistory {
		t.Errorf("Expected growth derived from sale history, got %s / %s", d.SalesGrowthSource, d.RevenueGrowthSource)
	}

	if len(d.Trend.Labels) != 3 {
		t.Fatalf("Expected 3 trend labels, got %v", d.Trend.Labels)
	}
	if d.Trend.Labels[0] != "3/23" || d.Trend.Labels[1] != "3/24" || d.Trend.Labels[2] != "3/25" {
		t.Errorf("Unexpected trend labels %v", d.Trend.Labels)
	}
	if d.Trend.Series[0].Name != "Sales Growth (30days)" {
		t.Errorf("Unexpected trend series name %q", d.Trend.Series[0].Name)
	}

	if d.MaxQuantitySold != 10 {
		t.Errorf("Expected max quantity sold 10, got %d", d.MaxQuantitySold)
	}
	if len(d.Products) != 3 || d.Products[0].QuantityRemaining != 90 {
		t.Errorf("Unexpected product rows %+v", d.Products)
	}
	if !d.Products[0].Earned.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected Wheat earned 200, got %s", d.Products[0].Earned)
	}

	if len(d.TopSellers.Labels) != 2 || d.TopSellers.Labels[0] != "Wheat" {
		t.Errorf("Unexpected top sellers %v", d.TopSellers.Labels)
	}

	wantInventory := map[string]float64{"Grains": 90, "Uncategorized": 3, "Vegetables": 3}
	for i, label := range d.Inventory.Labels {
		if d.Inventory.Series[0].Values[i] != wantInventory[label] {
			t.Errorf("Inventory %s: expected %v, got %v", label, wantInventory[label], d.Inventory.Series[0].Values[i])
		}
	}
	if d.InventoryTotal != 96 {
		t.Errorf("Expected inventory total 96, got %d", d.InventoryTotal)
	}

	if len(d.RecentSales) != 3 {
		t.Fatalf("Expected 3 recent sales, got %d", len(d.RecentSales))
	}
	if d.RecentSales[0].Product != "Tomato" {
		t.Errorf("Expected most recent sale to be Tomato, got %s", d.RecentSales[0].Product)
	}
}

func TestBuildDashboardUsesBackendPreviousTotals(t *testing.T) {
	analysis := sampleAnalysis()
	prevSales := int64(24)
	prevRevenue := decimal.NewFromInt(480)
	analysis.PreviousTotalSales = &prevSales
	analysis.PreviousTotalRevenue = &prevRevenue

	d := Build(analysis, models.PeriodMonth, BuildOptions{Now: testNow, Location: time.UTC})

	if d.SalesGrowth.Value != -50 || d.SalesGrowth.Sign != SignNegative {
		t.Errorf("Unexpected sales growth %+v", d.SalesGrowth)
	}
	if d.RevenueGrowth.Value != -50 {
		t.Errorf("Unexpected revenue growth %+v", d.RevenueGrowth)
	}
	if d.SalesGrowthSource != GrowthSourceBackend || d.RevenueGrowthSource != GrowthSourceBackend {
		t.Errorf("Expected growth from backend totals, got %s / %s", d.SalesGrowthSource, d.RevenueGrowthSource)
	}
}

func TestBuildDashboardMixedGrowthSources(t *testing.T) {
	analysis := sampleAnalysis()
	prevSales := int64(6)
	analysis.PreviousTotalSales = &prevSales

	d := Build(analysis, models.PeriodMonth, BuildOptions{Now: testNow, Location: time.UTC})

	if d.SalesGrowthSource != GrowthSourceBackend || d.RevenueGrowthSource != GrowthSourceSaleHistory {
		t.Errorf("Unexpected growth sources %s / %s", d.SalesGrowthSource, d.RevenueGrowthSource)
	}
	if d.SalesGrowth.Value != 100 {
		t.Errorf("Expected +100%% from the backend total, got %+v", d.SalesGrowth)
	}
}

func TestBuildDashboardEmpty(t *testing.T) {
	d := Build(&models.SalesAnalysis{}, models.PeriodDay, BuildOptions{Now: testNow})

	if !d.Trend.Empty() || len(d.Trend.Series) != 0 {
		t.Errorf("Expected empty trend chart, got %+v", d.Trend)
	}
	if len(d.Buckets) != 0 {
		t.Errorf("Expected no buckets, got %d", len(d.Buckets))
	}
	if d.SalesGrowth.Sign != SignNeutral || d.RevenueGrowth.Sign != SignNeutral {
		t.Errorf("Expected neutral growth, got %+v / %+v", d.SalesGrowth, d.RevenueGrowth)
	}
	if d.MaxQuantitySold != 0 {
		t.Errorf("Expected zero max quantity, got %d", d.MaxQuantitySold)
	}
}
