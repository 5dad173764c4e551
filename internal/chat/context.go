// Package chat answers free-form questions about a post collection by
// grounding a language model in a summary of the data.
package chat

import (
	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
)

// PostSummary is the per-post view sent to the model.
type PostSummary struct {
	Type           string  `json:"type"`
	PublishedAt    string  `json:"publishedAt"` // dd/mm/yyyy
	Views          int64   `json:"views"`
	Reach          int64   `json:"reach"`
	Likes          int64   `json:"likes"`
	Comments       int64   `json:"comments"`
	Shares         int64   `json:"shares"`
	Saves          int64   `json:"saves"`
	Follows        int64   `json:"follows"`
	EngagementRate float64 `json:"engagementRate"`
	Duration       float64 `json:"duration"`
	Period         string  `json:"period"`
	DayOfWeek      string  `json:"dayOfWeek"`
	Hour           int     `json:"hour"`
	Description    string  `json:"description"`
}

// Context is the flattened, JSON-serializable data the assistant answers from.
type Context struct {
	analysis.DatasetTotals
	Profile   string                            `json:"profile,omitempty"`
	Posts     []PostSummary                     `json:"posts"`
	TypeStats []analysis.ContentTypePerformance `json:"typeStats"`
	DayStats  []analysis.DayPerformance         `json:"dayStats"`
	HourStats []analysis.HourPerformance        `json:"hourStats"`
}

// BuildContext summarizes posts in the order given; callers pass them
// newest first so the prompt lists the latest posts.
func BuildContext(posts []analysis.Post, loc analysis.Locale) Context {
	c := Context{
		DatasetTotals: analysis.Totals(posts),
		Posts:         make([]PostSummary, 0, len(posts)),
		TypeStats:     analysis.ByContentType(posts),
		DayStats:      analysis.ByDay(posts, loc),
		HourStats:     analysis.ByHour(posts),
	}
	for _, p := range posts {
		if c.Profile == "" && p.Username != "" {
			c.Profile = p.Username
		}
		c.Posts = append(c.Posts, PostSummary{
			Type:           p.PostType,
			PublishedAt:    p.PublishedAt.Format("02/01/2006"),
			Views:          p.Views,
			Reach:          p.Reach,
			Likes:          p.Likes,
			Comments:       p.Comments,
			Shares:         p.Shares,
			Saves:          p.Saves,
			Follows:        p.Follows,
			EngagementRate: p.EngagementRate,
			Duration:       p.Duration,
			Period:         string(p.Period),
			DayOfWeek:      p.DayName,
			Hour:           p.Hour,
			Description:    p.Description,
		})
	}
	return c
}
