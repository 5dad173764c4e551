package analysis

import (
	"fmt"
	"math"
	"sort"
)

// GroupStats are unweighted per-group averages.
type GroupStats struct {
	AvgViews      float64 `json:"avgViews"`
	AvgReach      float64 `json:"avgReach"`
	AvgLikes      float64 `json:"avgLikes"`
	AvgEngagement float64 `json:"avgEngagement"` // mean engagement rate (%)
	PostCount     int     `json:"postCount"`
}

// DayPerformance groups posts by weekday.
type DayPerformance struct {
	Day      string `json:"day"`
	DayIndex int    `json:"dayIndex"`
	GroupStats
}

// HourPerformance groups posts by publish hour.
type HourPerformance struct {
	Hour int `json:"hour"`
	GroupStats
}

// ContentTypePerformance groups posts by post type.
type ContentTypePerformance struct {
	Type       string `json:"type"`
	TotalViews int64  `json:"totalViews"`
	GroupStats
}

// PeriodPerformance groups posts by time-of-day bucket.
type PeriodPerformance struct {
	Period Period `json:"period"`
	GroupStats
}

type groupAcc struct {
	views, reach, likes int64
	engRate             float64
	n                   int
}

func (a *groupAcc) add(p Post) {
	a.views += p.Views
	a.reach += p.Reach
	a.likes += p.Likes
	a.engRate += p.EngagementRate
	a.n++
}

func (a *groupAcc) stats() GroupStats {
	if a == nil || a.n == 0 {
		return GroupStats{}
	}
	n := float64(a.n)
	return GroupStats{
		AvgViews:      float64(a.views) / n,
		AvgReach:      float64(a.reach) / n,
		AvgLikes:      float64(a.likes) / n,
		AvgEngagement: a.engRate / n,
		PostCount:     a.n,
	}
}

// ByDay returns one entry per weekday present, ascending by day index.
func ByDay(posts []Post, loc Locale) []DayPerformance {
	var acc [7]*groupAcc
	for _, p := range posts {
		d := p.DayOfWeek
		if d < 0 || d > 6 {
			continue
		}
		if acc[d] == nil {
			acc[d] = &groupAcc{}
		}
		acc[d].add(p)
	}
	var out []DayPerformance
	for d, a := range acc {
		if a == nil {
			continue
		}
		out = append(out, DayPerformance{Day: loc.DayName(d), DayIndex: d, GroupStats: a.stats()})
	}
	return out
}

// ByHour returns one entry per hour present, ascending.
func ByHour(posts []Post) []HourPerformance {
	var acc [24]*groupAcc
	for _, p := range posts {
		h := p.Hour
		if h < 0 || h > 23 {
			continue
		}
		if acc[h] == nil {
			acc[h] = &groupAcc{}
		}
		acc[h].add(p)
	}
	var out []HourPerformance
	for h, a := range acc {
		if a == nil {
			continue
		}
		out = append(out, HourPerformance{Hour: h, GroupStats: a.stats()})
	}
	return out
}

// OtherType labels posts with an empty type when grouping.
const OtherType = "Outro"

// ByContentType returns one entry per post type in first-seen order.
func ByContentType(posts []Post) []ContentTypePerformance {
	idx := map[string]int{}
	var keys []string
	var accs []*groupAcc
	for _, p := range posts {
		t := p.PostType
		if t == "" {
			t = OtherType
		}
		i, ok := idx[t]
		if !ok {
			i = len(keys)
			idx[t] = i
			keys = append(keys, t)
			accs = append(accs, &groupAcc{})
		}
		accs[i].add(p)
	}
	out := make([]ContentTypePerformance, len(keys))
	for i, k := range keys {
		out[i] = ContentTypePerformance{Type: k, TotalViews: accs[i].views, GroupStats: accs[i].stats()}
	}
	return out
}

// ByPeriod always returns the four periods in order; empty periods are zero.
func ByPeriod(posts []Post) []PeriodPerformance {
	acc := map[Period]*groupAcc{}
	for _, per := range Periods {
		acc[per] = &groupAcc{}
	}
	for _, p := range posts {
		if a, ok := acc[p.Period]; ok {
			a.add(p)
		}
	}
	out := make([]PeriodPerformance, len(Periods))
	for i, per := range Periods {
		out[i] = PeriodPerformance{Period: per, GroupStats: acc[per].stats()}
	}
	return out
}

// HeatmapOptions selects the grid emitted by Heatmap.
type HeatmapOptions struct {
	// Days in display order (0=Sunday). Empty means Monday through Sunday.
	Days []int
	// FromHour and ToHour bound the hours, inclusive, and are taken as given
	// (clamped to 0..23). Only the zero HeatmapOptions means the whole day.
	FromHour, ToHour int
}

// DefaultHeatmapOptions is the 6h-18h weekday grid shown on the temporal view.
func DefaultHeatmapOptions() HeatmapOptions {
	return HeatmapOptions{Days: []int{1, 2, 3, 4, 5, 6, 0}, FromHour: 6, ToHour: 18}
}

// HeatmapCell is the mean views of posts in one day/hour slot.
type HeatmapCell struct {
	Day      string  `json:"day"`
	DayIndex int     `json:"dayIndex"`
	Hour     int     `json:"hour"`
	Value    float64 `json:"value"`
	Count    int     `json:"count"`
}

// Heatmap emits every requested day x hour cell, substituting zero for
// slots with no posts.
func Heatmap(posts []Post, loc Locale, opt HeatmapOptions) []HeatmapCell {
	days := opt.Days
	from, to := opt.FromHour, opt.ToHour
	if len(days) == 0 && from == 0 && to == 0 {
		to = 23
	}
	if len(days) == 0 {
		days = []int{1, 2, 3, 4, 5, 6, 0}
	}
	if from < 0 {
		from = 0
	}
	if to > 23 {
		to = 23
	}
	type cell struct {
		total float64
		count int
	}
	grid := map[[2]int]*cell{}
	for _, p := range posts {
		k := [2]int{p.DayOfWeek, p.Hour}
		c := grid[k]
		if c == nil {
			c = &cell{}
			grid[k] = c
		}
		c.total += float64(p.Views)
		c.count++
	}
	out := make([]HeatmapCell, 0, len(days)*(to-from+1))
	for _, d := range days {
		for h := from; h <= to; h++ {
			hc := HeatmapCell{Day: loc.DayName(d), DayIndex: d, Hour: h}
			if c := grid[[2]int{d, h}]; c != nil {
				hc.Value = c.total / float64(c.count)
				hc.Count = c.count
			}
			out = append(out, hc)
		}
	}
	return out
}

// Bucket is a labeled range with averages over the posts that fall in it.
type Bucket struct {
	Name          string  `json:"name"`
	AvgViews      float64 `json:"avgViews"`
	AvgEngagement float64 `json:"avgEngagement"`
	Count         int     `json:"count"`
}

type bucketDef struct {
	name     string
	min, max float64
}

func bucketize(posts []Post, defs []bucketDef, key func(Post) float64) []Bucket {
	accs := make([]groupAcc, len(defs))
	for _, p := range posts {
		v := key(p)
		for i, d := range defs {
			if v >= d.min && v <= d.max {
				accs[i].add(p)
				break
			}
		}
	}
	out := make([]Bucket, len(defs))
	for i, d := range defs {
		s := accs[i].stats()
		out[i] = Bucket{Name: d.name, AvgViews: s.AvgViews, AvgEngagement: s.AvgEngagement, Count: s.PostCount}
	}
	return out
}

// DurationBuckets groups videos (duration > 0) by length. Fractional
// durations between bucket edges fall through, as they do on the dashboard.
func DurationBuckets(posts []Post) []Bucket {
	var videos []Post
	for _, p := range posts {
		if p.Duration > 0 {
			videos = append(videos, p)
		}
	}
	defs := []bucketDef{
		{"0-15s", 0, 15},
		{"16-30s", 16, 30},
		{"31-60s", 31, 60},
		{"60s+", 61, math.Inf(1)},
	}
	return bucketize(videos, defs, func(p Post) float64 { return p.Duration })
}

// CaptionLengthBuckets groups posts by description length.
func CaptionLengthBuckets(posts []Post) []Bucket {
	defs := []bucketDef{
		{"0-20 chars", 0, 20},
		{"21-50 chars", 21, 50},
		{"51-100 chars", 51, 100},
		{"100+ chars", 101, math.Inf(1)},
	}
	return bucketize(posts, defs, func(p Post) float64 { return float64(p.DescriptionLength) })
}

// EmojiUsage compares posts with and without emoji.
func EmojiUsage(posts []Post) []Bucket {
	var with, without groupAcc
	for _, p := range posts {
		if p.HasEmoji {
			with.add(p)
		} else {
			without.add(p)
		}
	}
	ws, wos := with.stats(), without.stats()
	return []Bucket{
		{Name: "Com Emoji", AvgViews: ws.AvgViews, AvgEngagement: ws.AvgEngagement, Count: ws.PostCount},
		{Name: "Sem Emoji", AvgViews: wos.AvgViews, AvgEngagement: wos.AvgEngagement, Count: wos.PostCount},
	}
}

// MonthTrend is the per-post average of likes and comments in one month.
type MonthTrend struct {
	Month      string `json:"month"` // YYYY-MM
	Likes      int64  `json:"likes"`
	Comments   int64  `json:"comments"`
	Engagement int64  `json:"engagement"`
	Posts      int    `json:"posts"`
}

// MonthlyTrends buckets posts by calendar month, ascending. Averages are
// rounded to whole counts.
func MonthlyTrends(posts []Post) []MonthTrend {
	type acc struct {
		likes, comments int64
		n               int
	}
	m := map[string]*acc{}
	for _, p := range posts {
		k := fmt.Sprintf("%04d-%02d", p.PublishedAt.Year(), int(p.PublishedAt.Month()))
		a := m[k]
		if a == nil {
			a = &acc{}
			m[k] = a
		}
		a.likes += p.Likes
		a.comments += p.Comments
		a.n++
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]MonthTrend, len(keys))
	for i, k := range keys {
		a := m[k]
		n := float64(a.n)
		out[i] = MonthTrend{
			Month:      k,
			Likes:      int64(math.Round(float64(a.likes) / n)),
			Comments:   int64(math.Round(float64(a.comments) / n)),
			Engagement: int64(math.Round(float64(a.likes+a.comments) / n)),
			Posts:      a.n,
		}
	}
	return out
}

// GrowthPercent compares the first and last month's engagement.
// It is 0 with fewer than one month or a zero first month.
func GrowthPercent(trends []MonthTrend) float64 {
	if len(trends) == 0 {
		return 0
	}
	first, last := trends[0], trends[len(trends)-1]
	if first.Engagement <= 0 {
		return 0
	}
	return float64(last.Engagement-first.Engagement) / float64(first.Engagement) * 100
}
