package analysis

import (
	"math"
	"sort"
)

// CorrelationEntry is the Pearson coefficient of one unordered metric pair.
type CorrelationEntry struct {
	Metric1     Metric  `json:"metric1"`
	Metric2     Metric  `json:"metric2"`
	Correlation float64 `json:"correlation"`
}

// DefaultCorrelationMetrics is the metric set correlated on the engagement
// view. Shares appear in it; follows do not.
var DefaultCorrelationMetrics = []Metric{
	MetricViews, MetricReach, MetricLikes, MetricComments,
	MetricShares, MetricSaves, MetricDuration, MetricDescriptionLength,
}

// Pearson returns the correlation coefficient of x and y over their common
// length. Fewer than two points or a zero-variance series yields 0.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return 0
	}
	if constant(x[:n]) || constant(y[:n]) {
		return 0
	}
	// centered two-pass sums; the one-pass form loses precision on fractions
	mx, my := mean(x[:n]), mean(y[:n])
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	r := sxy / math.Sqrt(sxx*syy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		r = 0
	}
	return r
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

// Correlate computes one entry per pair (i < j) of metrics, in input order.
// An unknown metric name is an error; empty metrics means the default set.
func Correlate(posts []Post, metrics []Metric) ([]CorrelationEntry, error) {
	if len(metrics) == 0 {
		metrics = DefaultCorrelationMetrics
	}
	series := make([][]float64, len(metrics))
	for i, m := range metrics {
		vals, err := Project(posts, m)
		if err != nil {
			return nil, err
		}
		series[i] = vals
	}
	out := make([]CorrelationEntry, 0, len(metrics)*(len(metrics)-1)/2)
	for i := 0; i < len(metrics); i++ {
		for j := i + 1; j < len(metrics); j++ {
			out = append(out, CorrelationEntry{
				Metric1:     metrics[i],
				Metric2:     metrics[j],
				Correlation: Pearson(series[i], series[j]),
			})
		}
	}
	return out, nil
}

// StrongCorrelations keeps entries with |r| > threshold, strongest first.
// A limit <= 0 keeps all of them.
func StrongCorrelations(entries []CorrelationEntry, threshold float64, limit int) []CorrelationEntry {
	var out []CorrelationEntry
	for _, e := range entries {
		if math.Abs(e.Correlation) > threshold {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Correlation) > math.Abs(out[j].Correlation)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
