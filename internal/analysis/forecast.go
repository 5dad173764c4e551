package analysis

import (
	"math"
	"sort"
	"time"
)

// Trend classifies the fitted weekly slope.
type Trend string

const (
	TrendGrowing   Trend = "growing"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// ForecastOptions tunes the weekly projection. The band multiplier and trend
// threshold have no statistical derivation; they reproduce the dashboard.
type ForecastOptions struct {
	Horizon        int     `json:"horizon" mapstructure:"horizon" yaml:"horizon"`
	BandMultiplier float64 `json:"band_multiplier" mapstructure:"band_multiplier" yaml:"band_multiplier"`
	TrendThreshold float64 `json:"trend_threshold" mapstructure:"trend_threshold" yaml:"trend_threshold"`
}

// DefaultForecastOptions projects 4 weeks with a ±1.5σ band and a ±10 trend threshold.
func DefaultForecastOptions() ForecastOptions {
	return ForecastOptions{Horizon: 4, BandMultiplier: 1.5, TrendThreshold: 10}
}

// WeekPoint is one historical or projected week. Historical points carry the
// fitted trend line; projected points carry the band.
type WeekPoint struct {
	WeekStart  time.Time `json:"weekStart"`
	Engagement int64     `json:"engagement"`
	Likes      int64     `json:"likes,omitempty"`
	Comments   int64     `json:"comments,omitempty"`
	Posts      int       `json:"posts,omitempty"`
	TrendLine  int64     `json:"trendLine,omitempty"`
	Lower      int64     `json:"lower,omitempty"`
	Upper      int64     `json:"upper,omitempty"`
}

// Forecast is the weekly engagement history and its linear projection.
type Forecast struct {
	Historical         []WeekPoint `json:"historical"`
	Predictions        []WeekPoint `json:"predictions"`
	Slope              float64     `json:"slope"`
	Intercept          float64     `json:"intercept"`
	Trend              Trend       `json:"trend"`
	TrendPercent       float64     `json:"trendPercent"`
	AvgEngagement      int64       `json:"avgEngagement"`
	NextWeekPrediction int64       `json:"nextWeekPrediction"`
}

// WeekStart returns local midnight of the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// ForecastWeekly buckets posts into Sunday-start weeks, averages engagement
// total per week (rounded), fits OLS over the week index and projects
// opt.Horizon weeks ahead. Weeks with no posts are not part of the series.
func ForecastWeekly(posts []Post, opt ForecastOptions) Forecast {
	if opt.Horizon <= 0 {
		opt.Horizon = DefaultForecastOptions().Horizon
	}
	type acc struct {
		start                time.Time
		eng, likes, comments int64
		n                    int
	}
	// keyed by calendar date: equal instants in distinct *time.Location
	// values are different map keys
	weeks := map[string]*acc{}
	for _, p := range posts {
		ws := WeekStart(p.PublishedAt)
		k := ws.Format("2006-01-02")
		a := weeks[k]
		if a == nil {
			a = &acc{start: ws}
			weeks[k] = a
		}
		a.eng += p.EngagementTotal
		a.likes += p.Likes
		a.comments += p.Comments
		a.n++
	}
	keys := make([]string, 0, len(weeks))
	for k := range weeks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	hist := make([]WeekPoint, len(keys))
	values := make([]float64, len(keys))
	for i, k := range keys {
		a := weeks[k]
		n := float64(a.n)
		hist[i] = WeekPoint{
			WeekStart:  a.start,
			Engagement: int64(math.Round(float64(a.eng) / n)),
			Likes:      int64(math.Round(float64(a.likes) / n)),
			Comments:   int64(math.Round(float64(a.comments) / n)),
			Posts:      a.n,
		}
		values[i] = float64(hist[i].Engagement)
	}

	f := Forecast{Historical: hist, Trend: TrendStable}
	if len(values) == 0 {
		return f
	}
	slope, intercept := linearRegression(values)
	f.Slope, f.Intercept = slope, intercept
	for i := range hist {
		hist[i].TrendLine = int64(math.Round(slope*float64(i) + intercept))
	}

	m := mean(values)
	band := popStdDev(values, m) * opt.BandMultiplier
	last := weeks[keys[len(keys)-1]].start
	f.Predictions = make([]WeekPoint, opt.Horizon)
	for i := 0; i < opt.Horizon; i++ {
		pred := math.Max(0, math.Round(slope*float64(len(values)+i)+intercept))
		f.Predictions[i] = WeekPoint{
			WeekStart:  last.AddDate(0, 0, 7*(i+1)),
			Engagement: int64(pred),
			Lower:      int64(math.Max(0, math.Round(pred-band))),
			Upper:      int64(math.Round(pred + band)),
		}
	}

	switch {
	case slope > opt.TrendThreshold:
		f.Trend = TrendGrowing
	case slope < -opt.TrendThreshold:
		f.Trend = TrendDeclining
	}
	if len(values) > 1 && values[0] != 0 {
		f.TrendPercent = (values[len(values)-1] - values[0]) / values[0] * 100
	}
	f.AvgEngagement = int64(math.Round(m))
	f.NextWeekPrediction = f.Predictions[0].Engagement
	return f
}

// linearRegression fits y = slope*x + intercept over x = 0..n-1. A degenerate
// fit yields zeros.
func linearRegression(y []float64) (slope, intercept float64) {
	n := float64(len(y))
	if n == 0 {
		return 0, 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		slope = 0
	}
	intercept = (sumY - slope*sumX) / n
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		intercept = 0
	}
	return slope, intercept
}
