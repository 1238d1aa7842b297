package analytics

import (
	"errors"
	"fmt"
)

// ErrSeriesLength is returned when a series does not match the chart labels.
var ErrSeriesLength = errors.New("series length does not match labels")

// Series is one named line or bar set of a chart.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Chart is a display-agnostic chart: shared labels and one or more series.
// Every series has exactly len(Labels) values.
type Chart struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// NamedValue is a single labeled aggregate, e.g. quantity sold per product.
type NamedValue struct {
	Name  string
	Value float64
}

// NewChart returns an empty chart over labels.
func NewChart(labels []string) Chart {
	if labels == nil {
		labels = []string{}
	}
	return Chart{Labels: labels, Series: []Series{}}
}

// AddSeries appends a series; values must line up with the labels.
func (c *Chart) AddSeries(name string, values []float64) error {
	if len(values) != len(c.Labels) {
		return fmt.Errorf("%w: series %q has %d values for %d labels", ErrSeriesLength, name, len(values), len(c.Labels))
	}
	c.Series = append(c.Series, Series{Name: name, Values: values})
	return nil
}

// Empty reports whether the chart has nothing to draw.
func (c Chart) Empty() bool {
	return len(c.Labels) == 0 || len(c.Series) == 0
}

// FromBucketMap turns a bucket map into a single-series chart in
// chronological order. An empty map yields a chart with no series.
func FromBucketMap(name string, m BucketMap) Chart {
	sorted := m.Sorted()
	if len(sorted) == 0 {
		return NewChart(nil)
	}

	labels := make([]string, len(sorted))
	values := make([]float64, len(sorted))
	for i, b := range sorted {
		labels[i] = b.Label
		values[i] = float64(b.Quantity)
	}

	chart := NewChart(labels)
	chart.Series = append(chart.Series, Series{Name: name, Values: values})
	return chart
}

// FromNamedValues charts aggregates in the given order, one label per value.
func FromNamedValues(name string, values []NamedValue) Chart {
	if len(values) == 0 {
		return NewChart(nil)
	}

	labels := make([]string, len(values))
	data := make([]float64, len(values))
	for i, v := range values {
		labels[i] = v.Name
		data[i] = v.Value
	}

	chart := NewChart(labels)
	chart.Series = append(chart.Series, Series{Name: name, Values: data})
	return chart
}
