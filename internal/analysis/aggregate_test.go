package analysis

import (
	"math"
	"testing"
)

func samplePosts() []Post {
	return []Post{
		mkPost("a", at(2024, 1, 3, 10), 300, 100, 10, 0, 0, 0), // Wednesday
		mkPost("b", at(2024, 1, 1, 10), 100, 100, 5, 0, 0, 0),  // Monday
		mkPost("c", at(2024, 1, 1, 20), 200, 100, 20, 0, 0, 0), // Monday
		mkPost("d", at(2024, 2, 4, 15), 50, 0, 0, 0, 0, 0),     // Sunday
	}
}

func TestByDayAscendingAndOmitsEmpty(t *testing.T) {
	days := ByDay(samplePosts(), LocalePTBR)
	if len(days) != 3 {
		t.Fatalf("expected 3 day groups, got %d", len(days))
	}
	wantIdx := []int{0, 1, 3}
	for i, d := range days {
		if d.DayIndex != wantIdx[i] {
			t.Fatalf("day order: got %d at %d", d.DayIndex, i)
		}
	}
	mon := days[1]
	if mon.Day != "Segunda" || mon.PostCount != 2 || mon.AvgViews != 150 || mon.AvgLikes != 12.5 {
		t.Fatalf("monday: %+v", mon)
	}
	if mon.AvgEngagement != 12.5 {
		t.Fatalf("monday engagement: %v", mon.AvgEngagement)
	}
}

func TestByHourAscending(t *testing.T) {
	hours := ByHour(samplePosts())
	want := []int{10, 15, 20}
	if len(hours) != len(want) {
		t.Fatalf("expected %d hours, got %d", len(want), len(hours))
	}
	for i, h := range hours {
		if h.Hour != want[i] {
			t.Fatalf("hour order: %+v", hours)
		}
	}
	if hours[0].PostCount != 2 || hours[0].AvgViews != 200 {
		t.Fatalf("10h: %+v", hours[0])
	}
}

func TestByContentTypeFirstSeen(t *testing.T) {
	posts := samplePosts()
	posts[1].PostType = "Carrossel"
	posts[3].PostType = ""
	types := ByContentType(posts)
	if len(types) != 3 {
		t.Fatalf("expected 3 types, got %+v", types)
	}
	if types[0].Type != "Reel do Instagram" || types[1].Type != "Carrossel" || types[2].Type != OtherType {
		t.Fatalf("order: %+v", types)
	}
	if types[0].TotalViews != 500 || types[0].PostCount != 2 {
		t.Fatalf("reel totals: %+v", types[0])
	}
}

func TestByPeriodZeroFilled(t *testing.T) {
	got := ByPeriod(nil)
	if len(got) != 4 {
		t.Fatalf("expected 4 periods, got %d", len(got))
	}
	for i, p := range got {
		if p.Period != Periods[i] || p.PostCount != 0 || p.AvgViews != 0 {
			t.Fatalf("period %d: %+v", i, p)
		}
	}
	got = ByPeriod(samplePosts())
	if got[0].PostCount != 2 || got[1].PostCount != 1 || got[2].PostCount != 1 || got[3].PostCount != 0 {
		t.Fatalf("period counts: %+v", got)
	}
}

func TestHeatmapHonorsExplicitMidnightBound(t *testing.T) {
	cells := Heatmap(samplePosts(), LocalePTBR, HeatmapOptions{Days: []int{1}, FromHour: 0, ToHour: 0})
	if len(cells) != 1 || cells[0].Hour != 0 || cells[0].DayIndex != 1 {
		t.Fatalf("expected only monday 0h, got %+v", cells)
	}
	cells = Heatmap(samplePosts(), LocalePTBR, HeatmapOptions{Days: []int{1}, FromHour: 22, ToHour: 40})
	if len(cells) != 2 || cells[1].Hour != 23 {
		t.Fatalf("expected 22h-23h, got %+v", cells)
	}
	if cells := Heatmap(samplePosts(), LocalePTBR, HeatmapOptions{}); len(cells) != 7*24 {
		t.Fatalf("zero options should cover the whole week, got %d cells", len(cells))
	}
}

func TestHeatmapFillsEveryCell(t *testing.T) {
	cells := Heatmap(samplePosts(), LocalePTBR, DefaultHeatmapOptions())
	if len(cells) != 7*13 {
		t.Fatalf("expected 91 cells, got %d", len(cells))
	}
	if cells[0].DayIndex != 1 || cells[0].Hour != 6 {
		t.Fatalf("grid should start Monday 6h: %+v", cells[0])
	}
	if last := cells[len(cells)-1]; last.DayIndex != 0 || last.Hour != 18 {
		t.Fatalf("grid should end Sunday 18h: %+v", last)
	}
	var found bool
	for _, c := range cells {
		if c.DayIndex == 1 && c.Hour == 10 {
			found = true
			if c.Value != 100 || c.Count != 1 {
				t.Fatalf("monday 10h: %+v", c)
			}
		}
		if c.DayIndex == 2 && c.Value != 0 {
			t.Fatalf("tuesday has no posts: %+v", c)
		}
	}
	if !found {
		t.Fatalf("monday 10h cell missing")
	}
}

func TestDurationAndCaptionBuckets(t *testing.T) {
	mk := func(d float64, desc string, views int64) Post {
		return NewPost(PostInput{ID: desc, Description: desc, Duration: d, PublishedAt: at(2024, 1, 1, 1), Views: views}, LocalePTBR)
	}
	posts := []Post{
		mk(0, "", 1000),
		mk(10, "curto", 100),
		mk(20, "um pouco mais de vinte caracteres", 200),
		mk(45, "x", 300),
		mk(90, "y", 400),
		mk(15.5, "z", 999),
	}
	d := DurationBuckets(posts)
	if len(d) != 4 || d[0].Count != 1 || d[1].Count != 1 || d[2].Count != 1 || d[3].Count != 1 {
		t.Fatalf("duration buckets: %+v", d)
	}
	if d[3].AvgViews != 400 {
		t.Fatalf("60s+ bucket: %+v", d[3])
	}
	c := CaptionLengthBuckets(posts)
	if c[0].Count != 5 || c[1].Count != 1 {
		t.Fatalf("caption buckets: %+v", c)
	}
}

func TestEmojiUsage(t *testing.T) {
	posts := []Post{
		NewPost(PostInput{ID: "a", Description: "oi 😍", PublishedAt: at(2024, 1, 1, 1), Views: 300}, LocalePTBR),
		NewPost(PostInput{ID: "b", Description: "oi", PublishedAt: at(2024, 1, 1, 1), Views: 100}, LocalePTBR),
	}
	u := EmojiUsage(posts)
	if u[0].Count != 1 || u[0].AvgViews != 300 || u[1].Count != 1 || u[1].AvgViews != 100 {
		t.Fatalf("emoji usage: %+v", u)
	}
}

func TestMonthlyTrendsAndGrowth(t *testing.T) {
	posts := []Post{
		mkPost("a", at(2024, 2, 1, 1), 0, 0, 30, 10, 0, 0),
		mkPost("b", at(2024, 1, 1, 1), 0, 0, 10, 0, 0, 0),
		mkPost("c", at(2024, 1, 20, 1), 0, 0, 11, 0, 0, 0),
	}
	m := MonthlyTrends(posts)
	if len(m) != 2 || m[0].Month != "2024-01" || m[1].Month != "2024-02" {
		t.Fatalf("months: %+v", m)
	}
	if m[0].Likes != 11 || m[0].Engagement != 11 || m[0].Posts != 2 {
		t.Fatalf("january: %+v", m[0])
	}
	if g := GrowthPercent(m); math.Abs(g-(40.0-11.0)/11.0*100) > 1e-9 {
		t.Fatalf("growth: %v", g)
	}
	if GrowthPercent(nil) != 0 {
		t.Fatalf("growth of nothing should be 0")
	}
}

func TestAggregationIgnoresOrder(t *testing.T) {
	posts := samplePosts()
	rev := make([]Post, len(posts))
	for i, p := range posts {
		rev[len(posts)-1-i] = p
	}
	a, b := ByDay(posts, LocalePTBR), ByDay(rev, LocalePTBR)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("order-dependent result: %+v vs %+v", a[i], b[i])
		}
	}
}
