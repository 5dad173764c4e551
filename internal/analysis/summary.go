package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnknownMetric is returned when a metric name has no projection.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric names a numeric projection of a post.
type Metric string

const (
	MetricViews             Metric = "views"
	MetricReach             Metric = "reach"
	MetricLikes             Metric = "likes"
	MetricComments          Metric = "comments"
	MetricShares            Metric = "shares"
	MetricSaves             Metric = "saves"
	MetricFollows           Metric = "follows"
	MetricDuration          Metric = "duration"
	MetricDescriptionLength Metric = "descriptionLength"
	MetricEngagementTotal   Metric = "engagementTotal"
	MetricEngagementRate    Metric = "engagementRate"
	MetricReachRate         Metric = "reachRate"
)

// Value returns the metric of p.
func (m Metric) Value(p Post) (float64, error) {
	switch m {
	case MetricViews:
		return float64(p.Views), nil
	case MetricReach:
		return float64(p.Reach), nil
	case MetricLikes:
		return float64(p.Likes), nil
	case MetricComments:
		return float64(p.Comments), nil
	case MetricShares:
		return float64(p.Shares), nil
	case MetricSaves:
		return float64(p.Saves), nil
	case MetricFollows:
		return float64(p.Follows), nil
	case MetricDuration:
		return p.Duration, nil
	case MetricDescriptionLength:
		return float64(p.DescriptionLength), nil
	case MetricEngagementTotal:
		return float64(p.EngagementTotal), nil
	case MetricEngagementRate:
		return p.EngagementRate, nil
	case MetricReachRate:
		return p.ReachRate, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, string(m))
}

// Project extracts one metric across posts.
func Project(posts []Post, m Metric) ([]float64, error) {
	out := make([]float64, len(posts))
	for i, p := range posts {
		v, err := m.Value(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// MetricSummary holds descriptive statistics over a numeric series.
type MetricSummary struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"stdDev"`
}

// Summarize computes total, mean, median, min, max and population standard
// deviation. Empty input yields all zeros.
func Summarize(values []float64) MetricSummary {
	n := len(values)
	if n == 0 {
		return MetricSummary{}
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var total float64
	for _, v := range values {
		total += v
	}
	mean := total / float64(n)
	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}
	return MetricSummary{
		Total:   total,
		Average: mean,
		Median:  median,
		Min:     sorted[0],
		Max:     sorted[n-1],
		StdDev:  popStdDev(values, mean),
	}
}

func popStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var s float64
	for _, v := range values {
		s += v
	}
	return s / float64(len(values))
}

// MetricDistribution pairs a metric with its summary.
type MetricDistribution struct {
	Metric  Metric        `json:"metric"`
	Summary MetricSummary `json:"summary"`
}

// DistributionMetrics are the counters summarized on the engagement view.
var DistributionMetrics = []Metric{MetricViews, MetricReach, MetricLikes, MetricComments, MetricShares, MetricSaves}

// Distributions summarizes each of the given metrics.
func Distributions(posts []Post, metrics []Metric) ([]MetricDistribution, error) {
	out := make([]MetricDistribution, 0, len(metrics))
	for _, m := range metrics {
		vals, err := Project(posts, m)
		if err != nil {
			return nil, err
		}
		out = append(out, MetricDistribution{Metric: m, Summary: Summarize(vals)})
	}
	return out, nil
}

// DatasetTotals are the headline figures across a post collection.
type DatasetTotals struct {
	TotalPosts    int     `json:"totalPosts"`
	TotalViews    int64   `json:"totalViews"`
	TotalReach    int64   `json:"totalReach"`
	TotalLikes    int64   `json:"totalLikes"`
	TotalComments int64   `json:"totalComments"`
	TotalShares   int64   `json:"totalShares"`
	TotalSaves    int64   `json:"totalSaves"`
	TotalFollows  int64   `json:"totalFollows"`
	AvgViews      float64 `json:"avgViews"`
	AvgReach      float64 `json:"avgReach"`
	AvgLikes      float64 `json:"avgLikes"`
	AvgEngagement float64 `json:"avgEngagement"`
	AvgReachRate  float64 `json:"avgReachRate"`
}

// Totals sums counters and averages per post. Empty input yields zeros.
func Totals(posts []Post) DatasetTotals {
	t := DatasetTotals{TotalPosts: len(posts)}
	if len(posts) == 0 {
		return t
	}
	var eng, rr float64
	for _, p := range posts {
		t.TotalViews += p.Views
		t.TotalReach += p.Reach
		t.TotalLikes += p.Likes
		t.TotalComments += p.Comments
		t.TotalShares += p.Shares
		t.TotalSaves += p.Saves
		t.TotalFollows += p.Follows
		eng += p.EngagementRate
		rr += p.ReachRate
	}
	n := float64(len(posts))
	t.AvgViews = float64(t.TotalViews) / n
	t.AvgReach = float64(t.TotalReach) / n
	t.AvgLikes = float64(t.TotalLikes) / n
	t.AvgEngagement = eng / n
	t.AvgReachRate = rr / n
	return t
}
