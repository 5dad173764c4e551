package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DashboardOptions configures every view assembled by BuildDashboard.
type DashboardOptions struct {
	Name               string
	Locale             Locale
	ClusterWeights     ClusterWeights
	Forecast           ForecastOptions
	CorrelationMetrics []Metric
	StrongCorrelation  float64
	MaxCorrelations    int
	Lexicon            Lexicon
	Benchmarks         Benchmarks
	Heatmap            HeatmapOptions
	TopPosts           int
}

// DefaultDashboardOptions mirrors the dashboard defaults.
func DefaultDashboardOptions() DashboardOptions {
	return DashboardOptions{
		Locale:             LocalePTBR,
		ClusterWeights:     DefaultClusterWeights(),
		Forecast:           DefaultForecastOptions(),
		CorrelationMetrics: DefaultCorrelationMetrics,
		StrongCorrelation:  0.5,
		MaxCorrelations:    8,
		Lexicon:            DefaultLexicon(),
		Benchmarks:         DefaultBenchmarks(),
		Heatmap:            DefaultHeatmapOptions(),
		TopPosts:           5,
	}
}

// Dashboard is every analysis view over one post collection.
type Dashboard struct {
	Name          string                   `json:"name,omitempty"`
	GeneratedAt   time.Time                `json:"generatedAt"`
	From          time.Time                `json:"from"`
	To            time.Time                `json:"to"`
	Totals        DatasetTotals            `json:"totals"`
	Distributions []MetricDistribution     `json:"distributions"`
	ByDay         []DayPerformance         `json:"byDay"`
	ByHour        []HourPerformance        `json:"byHour"`
	ByPeriod      []PeriodPerformance      `json:"byPeriod"`
	ByContentType []ContentTypePerformance `json:"byContentType"`
	Heatmap       []HeatmapCell            `json:"heatmap"`
	Durations     []Bucket                 `json:"durations"`
	Captions      []Bucket                 `json:"captions"`
	Emoji         []Bucket                 `json:"emoji"`
	Correlations  []CorrelationEntry       `json:"correlations"`
	Strong        []CorrelationEntry       `json:"strongCorrelations"`
	Clusters      []Cluster                `json:"clusters"`
	Forecast      Forecast                 `json:"forecast"`
	Monthly       []MonthTrend             `json:"monthly"`
	Growth        float64                  `json:"growthPercent"`
	Sentiment     []SentimentGroup         `json:"sentiment"`
	Benchmark     *BenchmarkReport         `json:"benchmark,omitempty"`
	Insights      []Insight                `json:"insights"`
	TopPosts      []Post                   `json:"topPosts"`
}

// BuildDashboard runs every engine over posts. The only error is an unknown
// correlation metric.
func BuildDashboard(posts []Post, opt DashboardOptions) (*Dashboard, error) {
	if opt.Locale.Name == "" {
		opt.Locale = LocalePTBR
	}
	d := &Dashboard{
		Name:          opt.Name,
		GeneratedAt:   time.Now(),
		Totals:        Totals(posts),
		ByDay:         ByDay(posts, opt.Locale),
		ByHour:        ByHour(posts),
		ByPeriod:      ByPeriod(posts),
		ByContentType: ByContentType(posts),
		Heatmap:       Heatmap(posts, opt.Locale, opt.Heatmap),
		Durations:     DurationBuckets(posts),
		Captions:      CaptionLengthBuckets(posts),
		Emoji:         EmojiUsage(posts),
		Clusters:      ClusterByPerformance(posts, opt.ClusterWeights),
		Forecast:      ForecastWeekly(posts, opt.Forecast),
		Monthly:       MonthlyTrends(posts),
		Sentiment:     SentimentBreakdown(posts, opt.Lexicon),
		Benchmark:     CompareBenchmarks(posts, opt.Benchmarks),
		Insights:      GenerateInsights(posts, opt.Locale),
		TopPosts:      TopPostsByViews(posts, opt.TopPosts),
	}
	d.Growth = GrowthPercent(d.Monthly)
	for i, p := range posts {
		if i == 0 || p.PublishedAt.Before(d.From) {
			d.From = p.PublishedAt
		}
		if i == 0 || p.PublishedAt.After(d.To) {
			d.To = p.PublishedAt
		}
	}
	var err error
	if d.Distributions, err = Distributions(posts, DistributionMetrics); err != nil {
		return nil, err
	}
	if d.Correlations, err = Correlate(posts, opt.CorrelationMetrics); err != nil {
		return nil, err
	}
	d.Strong = StrongCorrelations(d.Correlations, opt.StrongCorrelation, opt.MaxCorrelations)
	return d, nil
}

// TopPostsByViews returns up to n posts, most viewed first. Ties keep input order.
func TopPostsByViews(posts []Post, n int) []Post {
	if n <= 0 {
		return nil
	}
	sorted := make([]Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Views > sorted[j].Views })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// DisplayType shortens a post type label for tables.
func DisplayType(t string) string {
	return strings.TrimSpace(strings.ReplaceAll(t, " do Instagram", ""))
}

// Markdown renders a compact report suitable for prompts or standalone docs.
func (d *Dashboard) Markdown() string {
	var b strings.Builder
	t := d.Totals
	b.WriteString("[DATASET SUMMARY]\n")
	if d.Name != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", d.Name))
	}
	b.WriteString(fmt.Sprintf("Posts: %d\n", t.TotalPosts))
	if t.TotalPosts == 0 {
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Period: %s to %s\n", d.From.Format("02/01/2006"), d.To.Format("02/01/2006")))
	b.WriteString(fmt.Sprintf("Views: %s (avg %s) | Reach: %s (avg %s) | Likes: %s | Comments: %s | Shares: %s | Saves: %s | Follows: %s\n",
		FormatNumber(float64(t.TotalViews)), FormatNumber(t.AvgViews),
		FormatNumber(float64(t.TotalReach)), FormatNumber(t.AvgReach),
		FormatNumber(float64(t.TotalLikes)), FormatNumber(float64(t.TotalComments)),
		FormatNumber(float64(t.TotalShares)), FormatNumber(float64(t.TotalSaves)),
		FormatNumber(float64(t.TotalFollows))))
	b.WriteString(fmt.Sprintf("Avg engagement rate: %.2f%% | Avg reach rate: %.2f%%\n", t.AvgEngagement, t.AvgReachRate))

	b.WriteString("\n[METRICS]\n")
	for _, m := range d.Distributions {
		s := m.Summary
		b.WriteString(fmt.Sprintf("- %s: total %.0f, mean %.2f, median %.2f, min %.0f, max %.0f, std %.2f\n",
			m.Metric, s.Total, s.Average, s.Median, s.Min, s.Max, s.StdDev))
	}

	b.WriteString("\n[BY DAY]\n")
	for _, g := range d.ByDay {
		writeGroup(&b, g.Day, g.GroupStats)
	}
	b.WriteString("\n[BY HOUR]\n")
	for _, g := range d.ByHour {
		writeGroup(&b, fmt.Sprintf("%02dh", g.Hour), g.GroupStats)
	}
	b.WriteString("\n[BY PERIOD]\n")
	for _, g := range d.ByPeriod {
		writeGroup(&b, string(g.Period), g.GroupStats)
	}
	b.WriteString("\n[CONTENT TYPES]\n")
	for _, g := range d.ByContentType {
		writeGroup(&b, safeVal(DisplayType(g.Type)), g.GroupStats)
	}

	b.WriteString("\n[CONTENT]\n")
	for _, group := range []struct {
		title   string
		buckets []Bucket
	}{{"duration", d.Durations}, {"caption", d.Captions}, {"emoji", d.Emoji}} {
		b.WriteString(fmt.Sprintf("- %s:", group.title))
		for i, bk := range group.buckets {
			if i > 0 {
				b.WriteString(";")
			}
			b.WriteString(fmt.Sprintf(" %s n=%d views %s", bk.Name, bk.Count, FormatNumber(bk.AvgViews)))
		}
		b.WriteString("\n")
	}

	if len(d.Strong) > 0 {
		b.WriteString("\n[STRONG CORRELATIONS]\n")
		for _, c := range d.Strong {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", c.Metric1, c.Metric2, c.Correlation))
		}
	}

	if len(d.Clusters) > 0 {
		b.WriteString("\n[CLUSTERS]\n")
		for _, c := range d.Clusters {
			b.WriteString(fmt.Sprintf("- %s (n=%d): views %s, reach %s, likes %s, engagement %s\n",
				c.Label, len(c.Posts), FormatNumber(c.Centroid.Views), FormatNumber(c.Centroid.Reach),
				FormatNumber(c.Centroid.Likes), FormatNumber(c.Centroid.Engagement)))
		}
	}

	f := d.Forecast
	if len(f.Historical) > 0 {
		b.WriteString("\n[FORECAST]\n")
		b.WriteString(fmt.Sprintf("Weeks: %d | Trend: %s (slope %.2f, %+.1f%%) | Avg weekly engagement: %d\n",
			len(f.Historical), f.Trend, f.Slope, f.TrendPercent, f.AvgEngagement))
		for _, p := range f.Predictions {
			b.WriteString(fmt.Sprintf("- week of %s: %d (%d-%d)\n", p.WeekStart.Format("02/01/2006"), p.Engagement, p.Lower, p.Upper))
		}
	}

	if len(d.Monthly) > 0 {
		b.WriteString("\n[MONTHLY TRENDS]\n")
		for _, m := range d.Monthly {
			b.WriteString(fmt.Sprintf("- %s (n=%d): likes %d, comments %d, engagement %d\n", m.Month, m.Posts, m.Likes, m.Comments, m.Engagement))
		}
		b.WriteString(fmt.Sprintf("Growth: %+.1f%%\n", d.Growth))
	}

	b.WriteString("\n[SENTIMENT]\n")
	for _, s := range d.Sentiment {
		b.WriteString(fmt.Sprintf("- %s: %d posts, avg engagement %.0f\n", s.Label, s.Count, s.AvgEngagement))
	}

	if r := d.Benchmark; r != nil {
		b.WriteString("\n[BENCHMARKS]\n")
		b.WriteString(fmt.Sprintf("Score: %d (%s)\n", r.OverallScore, r.ScoreLabel))
		for _, c := range r.Comparisons {
			b.WriteString(fmt.Sprintf("- %s: %.1f vs %.1f (%s)\n", c.Label, c.Value, c.Benchmark, c.Rating))
		}
	}

	if len(d.Insights) > 0 {
		b.WriteString("\n[INSIGHTS]\n")
		for _, in := range d.Insights {
			b.WriteString(fmt.Sprintf("- [%s/%s] %s: %s\n", in.Type, in.Impact, in.Title, safeVal(in.Description)))
		}
	}

	if len(d.TopPosts) > 0 {
		b.WriteString("\n[TOP POSTS]\n")
		for _, p := range d.TopPosts {
			b.WriteString(fmt.Sprintf("- %s %s | %s views | %.2f%% eng | %s\n",
				p.PublishedAt.Format("02/01/2006 15:04"), safeVal(DisplayType(p.PostType)),
				FormatNumber(float64(p.Views)), p.EngagementRate, safeVal(truncateRunes(p.Description, 60))))
		}
	}
	return b.String()
}

func writeGroup(b *strings.Builder, key string, g GroupStats) {
	b.WriteString(fmt.Sprintf("- %s (n=%d): views %s, reach %s, likes %s, eng %.2f%%\n",
		key, g.PostCount, FormatNumber(g.AvgViews), FormatNumber(g.AvgReach), FormatNumber(g.AvgLikes), g.AvgEngagement))
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
