package analysis

import (
	"errors"
	"math"
	"testing"
)

func TestPearson(t *testing.T) {
	cases := []struct {
		name string
		x, y []float64
		want float64
	}{
		{"perfect", []float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}, 1},
		{"inverse", []float64{1, 2, 3}, []float64{3, 2, 1}, -1},
		{"constant", []float64{5, 5, 5}, []float64{1, 2, 3}, 0},
		{"both constant", []float64{1, 1}, []float64{2, 2}, 0},
		{"too short", []float64{1}, []float64{1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, c := range cases {
		got := Pearson(c.x, c.y)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestPearsonConstantFractionalSeriesIsExactlyZero(t *testing.T) {
	seq := []float64{1, 2, 3, 4, 5, 6, 7}
	for _, v := range []float64{1.1, 2.7, 0.1, 33.3} {
		flat := make([]float64, len(seq))
		for i := range flat {
			flat[i] = v
		}
		if got := Pearson(flat, seq); got != 0 {
			t.Fatalf("Pearson(%v x7, seq) = %v, want exactly 0", v, got)
		}
		if got := Pearson(seq, flat); got != 0 {
			t.Fatalf("Pearson(seq, %v x7) = %v, want exactly 0", v, got)
		}
	}
	if got := Pearson([]float64{0.1, 0.2, 0.3}, []float64{0.3, 0.6, 0.9}); math.Abs(got-1) > 1e-12 {
		t.Fatalf("fractional perfect correlation: got %v", got)
	}
}

func TestCorrelatePairs(t *testing.T) {
	posts := samplePosts()
	entries, err := Correlate(posts, nil)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	k := len(DefaultCorrelationMetrics)
	if len(entries) != k*(k-1)/2 {
		t.Fatalf("expected %d pairs, got %d", k*(k-1)/2, len(entries))
	}
	seen := map[[2]Metric]bool{}
	for _, e := range entries {
		if e.Metric1 == e.Metric2 {
			t.Fatalf("self pair: %+v", e)
		}
		if seen[[2]Metric{e.Metric2, e.Metric1}] {
			t.Fatalf("reversed duplicate: %+v", e)
		}
		seen[[2]Metric{e.Metric1, e.Metric2}] = true
		if e.Correlation < -1 || e.Correlation > 1 || math.IsNaN(e.Correlation) {
			t.Fatalf("out of range: %+v", e)
		}
	}
	if entries[0].Metric1 != MetricViews || entries[0].Metric2 != MetricReach {
		t.Fatalf("first pair should be views~reach: %+v", entries[0])
	}
}

func TestCorrelateUnknownMetric(t *testing.T) {
	_, err := Correlate(samplePosts(), []Metric{MetricViews, "followers"})
	if !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestStrongCorrelations(t *testing.T) {
	entries := []CorrelationEntry{
		{MetricViews, MetricReach, 0.6},
		{MetricViews, MetricLikes, -0.9},
		{MetricViews, MetricSaves, 0.5},
		{MetricReach, MetricLikes, 0.7},
	}
	got := StrongCorrelations(entries, 0.5, 2)
	if len(got) != 2 || got[0].Correlation != -0.9 || got[1].Correlation != 0.7 {
		t.Fatalf("unexpected: %+v", got)
	}
	if all := StrongCorrelations(entries, 0.5, 0); len(all) != 3 {
		t.Fatalf("threshold should be strict, got %+v", all)
	}
}
