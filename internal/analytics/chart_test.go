package analytics

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestFromBucketMapShape(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		m := make(BucketMap)
		n := rng.Intn(30)
		for i := 0; i < n; i++ {
			start := testNow.Add(-time.Duration(rng.Intn(24)) * time.Hour)
			m.Add(Label("1day", start, time.UTC), start, rng.Int63n(100))
		}

		chart := FromBucketMap("sales", m)
		for _, s := range chart.Series {
			if len(s.Values) != len(chart.Labels) {
				t.Fatalf("Run %d: series %q has %d values for %d labels", run, s.Name, len(s.Values), len(chart.Labels))
			}
		}
		if len(m) > 0 && len(chart.Series) != 1 {
			t.Fatalf("Run %d: expected one series, got %d", run, len(chart.Series))
		}
	}
}

func TestFromBucketMapValues(t *testing.T) {
	m := make(BucketMap)
	m.Add("3/2", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 4)
	m.Add("3/10", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), 6)
	m.Add("3/2", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 1)

	chart := FromBucketMap("qty", m)

	if chart.Labels[0] != "3/2" || chart.Labels[1] != "3/10" {
		t.Fatalf("Unexpected labels %v", chart.Labels)
	}
	if chart.Series[0].Values[0] != 5 || chart.Series[0].Values[1] != 6 {
		t.Errorf("Unexpected values %v", chart.Series[0].Values)
	}
}

func TestFromNamedValues(t *testing.T) {
	chart := FromNamedValues("sold", []NamedValue{{"Wheat", 12}, {"Rice", 3}})

	if len(chart.Labels) != 2 || chart.Labels[0] != "Wheat" {
		t.Fatalf("Unexpected labels %v", chart.Labels)
	}
	if chart.Series[0].Name != "sold" || chart.Series[0].Values[1] != 3 {
		t.Errorf("Unexpected series %+v", chart.Series[0])
	}

	if empty := FromNamedValues("sold", nil); !empty.Empty() {
		t.Errorf("Expected empty chart, got %+v", empty)
	}
}

func TestAddSeriesRejectsMismatch(t *testing.T) {
	chart := NewChart([]string{"a", "b"})

	if err := chart.AddSeries("ok", []float64{1, 2}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	err := chart.AddSeries("short", []float64{1})
	if !errors.Is(err, ErrSeriesLength) {
		t.Errorf("Expected ErrSeriesLength, got %v", err)
	}
	if len(chart.Series) != 1 {
		t.Errorf("Expected mismatched series to be rejected, got %d series", len(chart.Series))
	}
}
