package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agriconnect/service-dashboard/internal/domain/backend"
	"github.com/agriconnect/service-dashboard/internal/models"
)

func newTestDashboardService(f *fakeFetcher, p ProfileFetcher) *DashboardService {
	return NewDashboardService(f, p, nil, nil, &DashboardServiceConfig{Now: fixedNow}, nil)
}

func TestGetDashboard(t *testing.T) {
	f := newFakeFetcher()
	svc := newTestDashboardService(f, nil)

	d, fromCache, err := svc.GetDashboard(context.Background(), mustSession("tok", ""), models.PeriodMonth, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fromCache {
		t.Error("Expected a fresh fetch without a cache")
	}
	if d.Summary.TotalSales != 30 || d.Period != models.PeriodMonth {
		t.Errorf("Unexpected dashboard %+v", d.Summary)
	}
	if len(d.Trend.Labels) != 1 || d.Trend.Labels[0] != "3/25" {
		t.Errorf("Unexpected trend labels %v", d.Trend.Labels)
	}
}

func TestGetDashboardRejectsInvalidPeriod(t *testing.T) {
	f := newFakeFetcher()
	svc := newTestDashboardService(f, nil)

	_, _, err := svc.GetDashboard(context.Background(), mustSession("tok", ""), "weekly", false)
	if !errors.Is(err, models.ErrInvalidPeriod) {
		t.Errorf("Expected ErrInvalidPeriod, got %v", err)
	}
	if f.callCount() != 0 {
		t.Errorf("Expected no backend call, got %d", f.callCount())
	}
}

func TestGetDashboardWrapsBackendErrors(t *testing.T) {
	f := newFakeFetcher()
	f.errs = []error{backend.NewAPIError("/x", 401, "", "")}
	svc := newTestDashboardService(f, nil)

	_, _, err := svc.GetDashboard(context.Background(), mustSession("tok", ""), models.PeriodDay, true)
	if !errors.Is(err, backend.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestResolveSession(t *testing.T) {
	svc := newTestDashboardService(newFakeFetcher(), &fakeProfiles{
		profile: &models.Profile{ID: "7", Name: "Ravi", UserType: "farmer"},
	})

	sess, err := svc.ResolveSession(context.Background(), mustSession("tok", ""))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sess.UserID != "7" || !sess.IsFarmer() || sess.SellerKey() != "user:7" {
		t.Errorf("Unexpected session %+v", sess)
	}

	failing := newTestDashboardService(newFakeFetcher(), &fakeProfiles{err: backend.ErrUnauthorized})
	if _, err := failing.ResolveSession(context.Background(), mustSession("tok", "")); !errors.Is(err, backend.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestGetDashboardServesFromCacheUntilRefresh(t *testing.T) {
	_, client := newTestRedis(t)
	f := newFakeFetcher()
	svc := NewDashboardService(f, nil, NewSalesCache(client, time.Minute, nil), nil, &DashboardServiceConfig{Now: fixedNow}, nil)
	ctx := context.Background()
	sess := mustSession("tok", "5")

	tests := []struct {
		refresh   bool
		fromCache bool
		calls     int
	}{
		{false, false, 1},
		{false, true, 1},
		{true, false, 2},
		{false, true, 2},
	}
	for i, tt := range tests {
		d, fromCache, err := svc.GetDashboard(ctx, sess, models.PeriodMonth, tt.refresh)
		if err != nil {
			t.Fatalf("%d: unexpected error: %v", i, err)
		}
		if fromCache != tt.fromCache || f.callCount() != tt.calls {
			t.Errorf("%d: expected from_cache=%v after %d calls, got %v after %d", i, tt.fromCache, tt.calls, fromCache, f.callCount())
		}
		if d.Summary.TotalSales != 30 {
			t.Errorf("%d: unexpected total %d", i, d.Summary.TotalSales)
		}
	}
}
