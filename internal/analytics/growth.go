package analytics

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Sign classifies a growth value for display.
type Sign string

const (
	SignPositive Sign = "positive"
	SignNegative Sign = "negative"
	SignNeutral  Sign = "neutral"
)

// GrowthMetric is the percentage change between two adjacent periods.
type GrowthMetric struct {
	Value float64 `json:"value"`
	Sign  Sign    `json:"sign"`
}

// String formats the metric the way the dashboard badges show it, e.g. "+50.0%".
func (g GrowthMetric) String() string {
	if g.Sign == SignPositive {
		return fmt.Sprintf("+%.1f%%", g.Value)
	}
	return fmt.Sprintf("%.1f%%", g.Value)
}

// Classify returns the sign of v.
func Classify(v float64) Sign {
	switch {
	case v > 0:
		return SignPositive
	case v < 0:
		return SignNegative
	default:
		return SignNeutral
	}
}

// Growth returns (current - previous) / |previous| * 100.
// A zero previous total yields zero growth; NaN and Inf never escape.
func Growth(current, previous float64) GrowthMetric {
	if previous == 0 || math.IsNaN(previous) || math.IsNaN(current) {
		return GrowthMetric{Value: 0, Sign: SignNeutral}
	}

	v := (current - previous) / math.Abs(previous) * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return GrowthMetric{Value: 0, Sign: SignNeutral}
	}
	return GrowthMetric{Value: v, Sign: Classify(v)}
}

// GrowthDecimal is Growth for money amounts.
func GrowthDecimal(current, previous decimal.Decimal) GrowthMetric {
	if previous.IsZero() {
		return GrowthMetric{Value: 0, Sign: SignNeutral}
	}

	v := current.Sub(previous).Div(previous.Abs()).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return GrowthMetric{Value: v, Sign: Classify(v)}
}
