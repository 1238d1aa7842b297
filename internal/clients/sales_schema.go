package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agriconnect/service-dashboard/internal/domain/backend"
	"github.com/agriconnect/service-dashboard/internal/models"
)

// Layouts accepted for sale_date. Offset-less layouts are read in the
// configured location.
var saleDateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

type salesAnalysisPayload struct {
	TotalSales           *int64           `json:"total_sales"`
	TotalRevenue         *decimal.Decimal `json:"total_revenue"`
	PreviousTotalSales   *int64           `json:"previous_total_sales"`
	PreviousTotalRevenue *decimal.Decimal `json:"previous_total_revenue"`
	ProductSales         []productPayload `json:"product_sales"`
}

type productPayload struct {
	Name           *string          `json:"name"`
	Category       string           `json:"category"`
	QuantityListed *int64           `json:"quantity_listed"`
	QuantitySold   *int64           `json:"quantity_sold"`
	Price          *decimal.Decimal `json:"price"`
	Revenue        *decimal.Decimal `json:"revenue"`
	Sales          []salePayload    `json:"sales"`
}

type salePayload struct {
	QuantitySold      *int64           `json:"quantity_sold"`
	QuantityListed    *int64           `json:"quantity_listed"`
	QuantityRemaining *int64           `json:"quantity_remaining"`
	PriceAtSale       *decimal.Decimal `json:"price_at_sale"`
	SaleDate          *string          `json:"sale_date"`
}

type profilePayload struct {
	ID           flexibleID `json:"id"`
	Name         string     `json:"name"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	UserType     string     `json:"usertype"`
	ProfileImage string     `json:"profile_image"`
}

// flexibleID accepts numeric and string primary keys.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

func decodeSalesAnalysis(body []byte, loc *time.Location) (*models.SalesAnalysis, error) {
	var payload salesAnalysisPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, backend.NewValidationError("$", "malformed JSON: %v", err)
	}
	return payload.toModel(loc)
}

func (p *salesAnalysisPayload) toModel(loc *time.Location) (*models.SalesAnalysis, error) {
	if p.TotalSales == nil {
		return nil, backend.NewValidationError("total_sales", "missing")
	}
	if *p.TotalSales < 0 {
		return nil, backend.NewValidationError("total_sales", "negative value %d", *p.TotalSales)
	}
	if p.TotalRevenue == nil {
		return nil, backend.NewValidationError("total_revenue", "missing")
	}
	if p.TotalRevenue.IsNegative() {
		return nil, backend.NewValidationError("total_revenue", "negative value %s", p.TotalRevenue)
	}

	analysis := &models.SalesAnalysis{
		TotalSales:           *p.TotalSales,
		TotalRevenue:         *p.TotalRevenue,
		PreviousTotalSales:   p.PreviousTotalSales,
		PreviousTotalRevenue: p.PreviousTotalRevenue,
		ProductSales:         make([]models.ProductAggregate, 0, len(p.ProductSales)),
	}
	for i := range p.ProductSales {
		product, err := p.ProductSales[i].toModel(fmt.Sprintf("product_sales[%d]", i), loc)
		if err != nil {
			return nil, err
		}
		analysis.ProductSales = append(analysis.ProductSales, product)
	}
	return analysis, nil
}

func (p *productPayload) toModel(path string, loc *time.Location) (models.ProductAggregate, error) {
	var out models.ProductAggregate

	if p.Name == nil || strings.TrimSpace(*p.Name) == "" {
		return out, backend.NewValidationError(path+".name", "missing")
	}
	out.Name = *p.Name
	out.Category = p.Category

	var err error
	if out.QuantityListed, err = nonNegative(path+".quantity_listed", p.QuantityListed); err != nil {
		return out, err
	}
	if out.QuantitySold, err = nonNegative(path+".quantity_sold", p.QuantitySold); err != nil {
		return out, err
	}
	if p.Price != nil {
		if p.Price.IsNegative() {
			return out, backend.NewValidationError(path+".price", "negative value %s", p.Price)
		}
		out.Price = *p.Price
	}

	out.Sales = make([]models.SaleEvent, 0, len(p.Sales))
	revenue := decimal.Zero
	for i := range p.Sales {
		event, err := p.Sales[i].toModel(fmt.Sprintf("%s.sales[%d]", path, i), loc)
		if err != nil {
			return out, err
		}
		revenue = revenue.Add(event.Revenue())
		out.Sales = append(out.Sales, event)
	}
	sort.SliceStable(out.Sales, func(i, j int) bool {
		return out.Sales[i].SaleDate.Before(out.Sales[j].SaleDate)
	})

	if p.Revenue != nil {
		out.Revenue = *p.Revenue
	} else {
		out.Revenue = revenue
	}
	return out, nil
}

func (p *salePayload) toModel(path string, loc *time.Location) (models.SaleEvent, error) {
	var out models.SaleEvent

	if p.QuantitySold == nil {
		return out, backend.NewValidationError(path+".quantity_sold", "missing")
	}
	if *p.QuantitySold < 0 {
		return out, backend.NewValidationError(path+".quantity_sold", "negative value %d", *p.QuantitySold)
	}
	out.QuantitySold = *p.QuantitySold

	var err error
	if out.QuantityListed, err = nonNegative(path+".quantity_listed", p.QuantityListed); err != nil {
		return out, err
	}
	if out.QuantityRemaining, err = nonNegative(path+".quantity_remaining", p.QuantityRemaining); err != nil {
		return out, err
	}

	if p.PriceAtSale != nil {
		if p.PriceAtSale.IsNegative() {
			return out, backend.NewValidationError(path+".price_at_sale", "negative value %s", p.PriceAtSale)
		}
		out.PriceAtSale = *p.PriceAtSale
	}

	if p.SaleDate == nil || strings.TrimSpace(*p.SaleDate) == "" {
		return out, backend.NewValidationError(path+".sale_date", "missing")
	}
	if out.SaleDate, err = parseSaleDate(*p.SaleDate, loc); err != nil {
		return out, backend.NewValidationError(path+".sale_date", "%v", err)
	}
	return out, nil
}

func (p *profilePayload) toModel() *models.Profile {
	return &models.Profile{
		ID:           string(p.ID),
		Name:         p.Name,
		Username:     p.Username,
		Email:        p.Email,
		UserType:     p.UserType,
		ProfileImage: p.ProfileImage,
	}
}

// parseSaleDate accepts RFC 3339 timestamps and the naive layouts the
// backend emits when USE_TZ is off.
func parseSaleDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range saleDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a timestamp", raw)
}

func nonNegative(field string, v *int64) (int64, error) {
	if v == nil {
		return 0, nil
	}
	if *v < 0 {
		return 0, backend.NewValidationError(field, "negative value %d", *v)
	}
	return *v, nil
}
