package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestParsePeriod(t *testing.T) {
	for _, p := range AllPeriods() {
		got, err := ParsePeriod(string(p))
		if err != nil || got != p {
			t.Errorf("%s: unexpected result %q, %v", p, got, err)
		}
	}
	for _, raw := range []string{"", "7days", "1DAY", "30"} {
		if _, err := ParsePeriod(raw); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("%q: expected ErrInvalidPeriod, got %v", raw, err)
		}
	}
}

func TestQuantityRemaining(t *testing.T) {
	tests := []struct {
		listed, sold, want int64
	}{
		{20, 8, 12},
		{5, 5, 0},
		{3, 7, 0},
	}
	for _, tt := range tests {
		p := ProductAggregate{QuantityListed: tt.listed, QuantitySold: tt.sold}
		if got := p.QuantityRemaining(); got != tt.want {
			t.Errorf("listed %d sold %d: expected %d, got %d", tt.listed, tt.sold, tt.want, got)
		}
	}
}

func TestSaleEventRevenue(t *testing.T) {
	e := SaleEvent{QuantitySold: 3, PriceAtSale: decimal.RequireFromString("12.50")}
	if !e.Revenue().Equal(decimal.RequireFromString("37.5")) {
		t.Errorf("Unexpected revenue %s", e.Revenue())
	}
}

func TestEventsFlattensProducts(t *testing.T) {
	var nilAnalysis *SalesAnalysis
	if nilAnalysis.Events() != nil {
		t.Error("Expected nil events for a nil analysis")
	}

	a := &SalesAnalysis{ProductSales: []ProductAggregate{
		{Sales: []SaleEvent{{QuantitySold: 1}, {QuantitySold: 2}}},
		{},
		{Sales: []SaleEvent{{QuantitySold: 3}}},
	}}
	if got := a.Events(); len(got) != 3 || got[2].QuantitySold != 3 {
		t.Errorf("Unexpected events %+v", got)
	}
}

func TestReportBeforeCreateAssignsID(t *testing.T) {
	r := &DashboardReport{}
	if err := r.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if r.ID == uuid.Nil {
		t.Error("Expected an ID to be assigned")
	}

	id := uuid.New()
	r = &DashboardReport{ID: id}
	_ = r.BeforeCreate(nil)
	if r.ID != id {
		t.Error("Expected an existing ID to be kept")
	}
}
