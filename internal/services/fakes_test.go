package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/session"
)

var testNow = time.Date(2026, 3, 25, 14, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func analysisWithTotal(total int64) *models.SalesAnalysis {
	price := decimal.NewFromInt(10)
	return &models.SalesAnalysis{
		TotalSales:   total,
		TotalRevenue: price.Mul(decimal.NewFromInt(total)),
		ProductSales: []models.ProductAggregate{{
			Name:           "Rice",
			QuantityListed: total * 2,
			QuantitySold:   total,
			Price:          price,
			Sales: []models.SaleEvent{
				{QuantitySold: total, PriceAtSale: price, SaleDate: testNow.Add(-time.Hour)},
			},
		}},
	}
}

// fakeFetcher returns per-period results. A period with a gate blocks until
// the gate is closed, regardless of context cancellation.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[models.Period]*models.SalesAnalysis
	errs    []error // consumed one per call before results
	gates   map[models.Period]chan struct{}
	calls   int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		results: map[models.Period]*models.SalesAnalysis{
			models.PeriodDay:   analysisWithTotal(1),
			models.PeriodMonth: analysisWithTotal(30),
			models.PeriodYear:  analysisWithTotal(365),
		},
		gates: make(map[models.Period]chan struct{}),
	}
}

func (f *fakeFetcher) GetSalesAnalysis(ctx context.Context, sess *session.Session, period models.Period) (*models.SalesAnalysis, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gates[period]
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	result := f.results[period]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeProfiles struct {
	profile *models.Profile
	err     error
	calls   int
}

func (f *fakeProfiles) GetProfile(ctx context.Context, sess *session.Session) (*models.Profile, error) {
	f.calls++
	return f.profile, f.err
}

type memoryReportStore struct {
	mu      sync.Mutex
	reports map[uuid.UUID]models.DashboardReport
}

func newMemoryReportStore() *memoryReportStore {
	return &memoryReportStore{reports: make(map[uuid.UUID]models.DashboardReport)}
}

func (m *memoryReportStore) Create(ctx context.Context, report *models.DashboardReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now()
	m.reports[report.ID] = *report
	return nil
}

func (m *memoryReportStore) ListBySeller(ctx context.Context, sellerKey string, limit int) ([]models.DashboardReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DashboardReport
	for _, r := range m.reports {
		if r.SellerKey == sellerKey {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryReportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.DashboardReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, models.ErrReportNotFound
	}
	return &r, nil
}

func mustSession(token, userID string) *session.Session {
	s, err := session.New(token)
	if err != nil {
		panic(err)
	}
	s.UserID = userID
	return s
}
