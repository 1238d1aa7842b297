package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agriconnect/service-dashboard/internal/models"
)

const (
	DefaultTopSellers  = 5
	DefaultRecentSales = 10

	uncategorized = "Uncategorized"
)

// Summary holds the headline totals reported by the backend.
type Summary struct {
	TotalSales   int64           `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// ProductRow is one line of the listed products table.
type ProductRow struct {
	Name              string          `json:"name"`
	Category          string          `json:"category,omitempty"`
	QuantityListed    int64           `json:"quantity_listed"`
	QuantitySold      int64           `json:"quantity_sold"`
	QuantityRemaining int64           `json:"quantity_remaining"`
	Price             decimal.Decimal `json:"price"`
	Earned            decimal.Decimal `json:"earned"`
}

// RecentSale is a single sale shown in the recent sales table.
type RecentSale struct {
	Product      string          `json:"product"`
	QuantitySold int64           `json:"quantity_sold"`
	PriceAtSale  decimal.Decimal `json:"price_at_sale"`
	SaleDate     time.Time       `json:"sale_date"`
}

// GrowthSource tells where the previous-window total behind a growth
// metric came from.
type GrowthSource string

const (
	// GrowthSourceBackend means the backend reported the previous total.
	GrowthSourceBackend GrowthSource = "backend"
	// GrowthSourceSaleHistory means the previous total was summed from the
	// returned sale histories, which usually only cover the current window.
	GrowthSourceSaleHistory GrowthSource = "sale_history"
)

// Dashboard is everything the seller dashboard renders for one period.
type Dashboard struct {
	Period      models.Period `json:"period"`
	GeneratedAt time.Time     `json:"generated_at"`
	Window      Window        `json:"window"`

	Summary       Summary      `json:"summary"`
	SalesGrowth   GrowthMetric `json:"sales_growth"`
	RevenueGrowth GrowthMetric `json:"revenue_growth"`

	SalesGrowthSource   GrowthSource `json:"sales_growth_source"`
	RevenueGrowthSource GrowthSource `json:"revenue_growth_source"`

	Trend   Chart    `json:"trend"`
	Buckets []Bucket `json:"buckets"`

	ProductSales    Chart `json:"product_sales"`
	MaxQuantitySold int64 `json:"max_quantity_sold"`
	TopSellers      Chart `json:"top_sellers"`
	Inventory       Chart `json:"inventory_by_category"`
	InventoryTotal  int64 `json:"inventory_total"`

	Products    []ProductRow `json:"products"`
	RecentSales []RecentSale `json:"recent_sales"`
}

// BuildOptions tunes Build. Zero values fall back to defaults.
type BuildOptions struct {
	Now         time.Time
	Location    *time.Location
	TopSellers  int
	RecentSales int
}

// Build derives the dashboard of period from one sales analysis.
func Build(analysis *models.SalesAnalysis, period models.Period, opts BuildOptions) *Dashboard {
	if analysis == nil {
		analysis = &models.SalesAnalysis{}
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.TopSellers <= 0 {
		opts.TopSellers = DefaultTopSellers
	}
	if opts.RecentSales <= 0 {
		opts.RecentSales = DefaultRecentSales
	}
	loc := location(opts.Location)

	events := analysis.Events()
	window := WindowFor(period, opts.Now, loc)
	previous := PreviousWindow(period, opts.Now, loc)

	buckets := BucketSales(events, period, opts.Now, loc)

	d := &Dashboard{
		Period:      period,
		GeneratedAt: opts.Now,
		Window:      window,
		Summary: Summary{
			TotalSales:   analysis.TotalSales,
			TotalRevenue: analysis.TotalRevenue,
		},
		Trend:   FromBucketMap(fmt.Sprintf("Sales Growth (%s)", period), buckets),
		Buckets: buckets.Sorted(),
	}

	prevSales := SumQuantity(events, previous)
	d.SalesGrowthSource = GrowthSourceSaleHistory
	if analysis.PreviousTotalSales != nil {
		prevSales = *analysis.PreviousTotalSales
		d.SalesGrowthSource = GrowthSourceBackend
	}
	d.SalesGrowth = Growth(float64(analysis.TotalSales), float64(prevSales))

	prevRevenue := SumRevenue(events, previous)
	d.RevenueGrowthSource = GrowthSourceSaleHistory
	if analysis.PreviousTotalRevenue != nil {
		prevRevenue = *analysis.PreviousTotalRevenue
		d.RevenueGrowthSource = GrowthSourceBackend
	}
	d.RevenueGrowth = GrowthDecimal(analysis.TotalRevenue, prevRevenue)

	d.Products, d.ProductSales, d.MaxQuantitySold = productTable(analysis.ProductSales)
	d.TopSellers = topSellers(analysis.ProductSales, opts.TopSellers)
	d.Inventory, d.InventoryTotal = inventoryByCategory(analysis.ProductSales)
	d.RecentSales = recentSales(analysis.ProductSales, window, opts.RecentSales)

	return d
}

func productTable(products []models.ProductAggregate) ([]ProductRow, Chart, int64) {
	rows := make([]ProductRow, 0, len(products))
	sold := make([]NamedValue, 0, len(products))
	var maxSold int64

	for _, p := range products {
		rows = append(rows, ProductRow{
			Name:              p.Name,
			Category:          p.Category,
			QuantityListed:    p.QuantityListed,
			QuantitySold:      p.QuantitySold,
			QuantityRemaining: p.QuantityRemaining(),
			Price:             p.Price,
			Earned:            p.Price.Mul(decimal.NewFromInt(p.QuantitySold)),
		})
		sold = append(sold, NamedValue{Name: p.Name, Value: float64(p.QuantitySold)})
		if p.QuantitySold > maxSold {
			maxSold = p.QuantitySold
		}
	}

	return rows, FromNamedValues("Total Quantity Sold", sold), maxSold
}

func topSellers(products []models.ProductAggregate, limit int) Chart {
	ranked := make([]models.ProductAggregate, 0, len(products))
	for _, p := range products {
		if p.QuantitySold > 0 {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].QuantitySold == ranked[j].QuantitySold {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].QuantitySold > ranked[j].QuantitySold
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	values := make([]NamedValue, len(ranked))
	for i, p := range ranked {
		values[i] = NamedValue{Name: p.Name, Value: float64(p.QuantitySold)}
	}
	return FromNamedValues("Top Sellers (Qty Sold)", values)
}

func inventoryByCategory(products []models.ProductAggregate) (Chart, int64) {
	byCategory := make(map[string]int64)
	var total int64
	for _, p := range products {
		category := p.Category
		if category == "" {
			category = uncategorized
		}
		remaining := p.QuantityRemaining()
		byCategory[category] += remaining
		total += remaining
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	values := make([]NamedValue, len(categories))
	for i, c := range categories {
		values[i] = NamedValue{Name: c, Value: float64(byCategory[c])}
	}
	return FromNamedValues("Inventory", values), total
}

func recentSales(products []models.ProductAggregate, window Window, limit int) []RecentSale {
	sales := make([]RecentSale, 0)
	for _, p := range products {
		for _, e := range p.Sales {
			if !window.Contains(e.SaleDate) {
				continue
			}
			sales = append(sales, RecentSale{
				Product:      p.Name,
				QuantitySold: e.QuantitySold,
				PriceAtSale:  e.PriceAtSale,
				SaleDate:     e.SaleDate,
			})
		}
	}

	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].SaleDate.After(sales[j].SaleDate)
	})
	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales
}
