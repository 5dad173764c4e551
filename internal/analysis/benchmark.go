package analysis

import (
	"math"
	"time"
)

// Benchmarks are the reference averages a profile is compared against.
type Benchmarks struct {
	EngagementRate     float64 `json:"engagement_rate" mapstructure:"engagement_rate" yaml:"engagement_rate"`
	LikesPerPost       float64 `json:"likes_per_post" mapstructure:"likes_per_post" yaml:"likes_per_post"`
	CommentsPerPost    float64 `json:"comments_per_post" mapstructure:"comments_per_post" yaml:"comments_per_post"`
	PostsPerWeek       float64 `json:"posts_per_week" mapstructure:"posts_per_week" yaml:"posts_per_week"`
	VideoEngagement    float64 `json:"video_engagement" mapstructure:"video_engagement" yaml:"video_engagement"`
	ImageEngagement    float64 `json:"image_engagement" mapstructure:"image_engagement" yaml:"image_engagement"`
	CarouselEngagement float64 `json:"carousel_engagement" mapstructure:"carousel_engagement" yaml:"carousel_engagement"`
	EstimatedFollowers float64 `json:"estimated_followers" mapstructure:"estimated_followers" yaml:"estimated_followers"`
}

// DefaultBenchmarks returns the simulated industry averages.
func DefaultBenchmarks() Benchmarks {
	return Benchmarks{
		EngagementRate:     3.5,
		LikesPerPost:       150,
		CommentsPerPost:    12,
		PostsPerWeek:       4,
		VideoEngagement:    4.2,
		ImageEngagement:    2.8,
		CarouselEngagement: 3.8,
		EstimatedFollowers: 10000,
	}
}

// Post types grouped for the per-format comparison.
var (
	VideoTypes    = []string{"Vídeo", "Reels"}
	ImageTypes    = []string{"Imagem"}
	CarouselTypes = []string{"Carrossel"}
)

// BenchmarkComparison is one metric against its reference.
type BenchmarkComparison struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Benchmark float64 `json:"benchmark"`
	Ratio     float64 `json:"ratio"`
	Rating    string  `json:"rating"`
}

// BenchmarkReport compares a post collection to Benchmarks.
type BenchmarkReport struct {
	AvgLikes           float64               `json:"avgLikes"`
	AvgComments        float64               `json:"avgComments"`
	AvgEngagement      float64               `json:"avgEngagement"`
	PostsPerWeek       float64               `json:"postsPerWeek"`
	VideoEngagement    float64               `json:"videoEngagement"`
	ImageEngagement    float64               `json:"imageEngagement"`
	CarouselEngagement float64               `json:"carouselEngagement"`
	EngagementRate     float64               `json:"engagementRate"` // against estimated followers
	TotalPosts         int                   `json:"totalPosts"`
	Comparisons        []BenchmarkComparison `json:"comparisons"`
	OverallScore       int                   `json:"overallScore"`
	ScoreLabel         string                `json:"scoreLabel"`
}

// PerformanceRating labels value/benchmark. A zero benchmark rates as below average.
func PerformanceRating(value, benchmark float64) string {
	var r float64
	if benchmark != 0 {
		r = value / benchmark
	}
	switch {
	case r >= 1.5:
		return "Excepcional"
	case r >= 1:
		return "Acima da média"
	case r >= 0.7:
		return "Na média"
	default:
		return "Abaixo da média"
	}
}

// ScoreLabel describes an overall benchmark score.
func ScoreLabel(score int) string {
	switch {
	case score >= 80:
		return "Performance Excepcional"
	case score >= 60:
		return "Boa Performance"
	case score >= 40:
		return "Na Média do Mercado"
	default:
		return "Espaço para Melhorar"
	}
}

// CompareBenchmarks returns nil for an empty collection.
func CompareBenchmarks(posts []Post, b Benchmarks) *BenchmarkReport {
	if len(posts) == 0 {
		return nil
	}
	n := float64(len(posts))
	var likes, comments, eng int64
	first, last := posts[0].PublishedAt, posts[0].PublishedAt
	for _, p := range posts {
		likes += p.Likes
		comments += p.Comments
		eng += p.EngagementTotal
		if p.PublishedAt.Before(first) {
			first = p.PublishedAt
		}
		if p.PublishedAt.After(last) {
			last = p.PublishedAt
		}
	}
	weeks := math.Max(1, float64(last.Sub(first))/float64(7*24*time.Hour))

	r := &BenchmarkReport{
		AvgLikes:           float64(likes) / n,
		AvgComments:        float64(comments) / n,
		AvgEngagement:      float64(eng) / n,
		PostsPerWeek:       n / weeks,
		VideoEngagement:    avgEngagementOf(posts, VideoTypes),
		ImageEngagement:    avgEngagementOf(posts, ImageTypes),
		CarouselEngagement: avgEngagementOf(posts, CarouselTypes),
		TotalPosts:         len(posts),
	}
	if b.EstimatedFollowers > 0 {
		r.EngagementRate = r.AvgEngagement / b.EstimatedFollowers * 100
	}
	for _, c := range []struct {
		label      string
		value, ref float64
	}{
		{"Likes por Post", r.AvgLikes, b.LikesPerPost},
		{"Comentários por Post", r.AvgComments, b.CommentsPerPost},
		{"Posts por Semana", r.PostsPerWeek, b.PostsPerWeek},
	} {
		var ratio float64
		if c.ref != 0 {
			ratio = c.value / c.ref
		}
		r.Comparisons = append(r.Comparisons, BenchmarkComparison{
			Label:     c.label,
			Value:     c.value,
			Benchmark: c.ref,
			Ratio:     ratio,
			Rating:    PerformanceRating(c.value, c.ref),
		})
	}
	score := safeDiv(r.AvgLikes, b.LikesPerPost)*25 +
		safeDiv(r.AvgComments, b.CommentsPerPost)*25 +
		safeDiv(r.PostsPerWeek, b.PostsPerWeek)*25 +
		safeDiv(r.AvgEngagement, b.LikesPerPost+b.CommentsPerPost)*25
	r.OverallScore = int(math.Round(score))
	r.ScoreLabel = ScoreLabel(r.OverallScore)
	return r
}

func avgEngagementOf(posts []Post, types []string) float64 {
	var sum int64
	var n int
	for _, p := range posts {
		for _, t := range types {
			if p.PostType == t {
				sum += p.EngagementTotal
				n++
				break
			}
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
