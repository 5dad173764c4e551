package analysis

import (
	"math"
	"regexp"
	"time"
	"unicode/utf8"
)

// Period is a coarse time-of-day bucket derived from the publish hour.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
	PeriodNight     Period = "night"
)

// Periods lists the buckets in display order.
var Periods = []Period{PeriodMorning, PeriodAfternoon, PeriodEvening, PeriodNight}

// PeriodOf maps an hour (0-23) to its period.
func PeriodOf(hour int) Period {
	switch {
	case hour >= 5 && hour < 12:
		return PeriodMorning
	case hour >= 12 && hour < 18:
		return PeriodAfternoon
	case hour >= 18 && hour < 22:
		return PeriodEvening
	default:
		return PeriodNight
	}
}

// PostInput carries the raw, non-derived fields of a post as read from a
// spreadsheet row or a database record.
type PostInput struct {
	ID          string
	AccountID   string
	Username    string
	AccountName string
	Description string
	PostType    string
	Duration    float64
	Permalink   string
	PublishedAt time.Time

	Views    int64
	Reach    int64
	Likes    int64
	Shares   int64
	Follows  int64
	Comments int64
	Saves    int64
}

// Post is one published item with its counters and derived metrics.
// Posts are built once by NewPost and treated as read-only afterwards.
type Post struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"accountId"`
	Username    string    `json:"username"`
	AccountName string    `json:"accountName"`
	Description string    `json:"description"`
	PostType    string    `json:"postType"`
	Duration    float64   `json:"duration"`
	Permalink   string    `json:"permalink"`
	PublishedAt time.Time `json:"publishedAt"`

	DayOfWeek  int    `json:"dayOfWeek"`
	DayName    string `json:"dayName"`
	Hour       int    `json:"hour"`
	Period     Period `json:"period"`
	WeekNumber int    `json:"weekNumber"`

	Views    int64 `json:"views"`
	Reach    int64 `json:"reach"`
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Follows  int64 `json:"follows"`
	Comments int64 `json:"comments"`
	Saves    int64 `json:"saves"`

	EngagementTotal int64   `json:"engagementTotal"`
	EngagementRate  float64 `json:"engagementRate"`
	ReachRate       float64 `json:"reachRate"`

	DescriptionLength int  `json:"descriptionLength"`
	HasEmoji          bool `json:"hasEmoji"`
	EmojiCount        int  `json:"emojiCount"`
	HashtagCount      int  `json:"hashtagCount"`
}

var hashtagRe = regexp.MustCompile(`#\w+`)

// emojiRanges are the code point blocks counted as emoji. Multi-codepoint
// sequences are not merged, so ZWJ or skin-tone sequences may overcount.
var emojiRanges = [][2]rune{
	{0x1F300, 0x1F9FF},
	{0x2600, 0x26FF},
	{0x2700, 0x27BF},
	{0x1F000, 0x1F02F},
	{0x1F0A0, 0x1F0FF},
}

func countEmoji(s string) int {
	n := 0
	for _, r := range s {
		for _, rg := range emojiRanges {
			if r >= rg[0] && r <= rg[1] {
				n++
				break
			}
		}
	}
	return n
}

// NewPost derives every computed field of a post from its raw input.
// It is the only place derivation formulas live.
func NewPost(in PostInput, loc Locale) Post {
	views := nonNeg(in.Views)
	reach := nonNeg(in.Reach)
	likes := nonNeg(in.Likes)
	shares := nonNeg(in.Shares)
	comments := nonNeg(in.Comments)
	saves := nonNeg(in.Saves)

	engTotal := likes + comments + shares + saves
	var engRate, reachRate float64
	if reach > 0 {
		engRate = float64(engTotal) / float64(reach) * 100
	}
	if views > 0 {
		reachRate = float64(reach) / float64(views) * 100
	}

	dur := in.Duration
	if dur < 0 || math.IsNaN(dur) || math.IsInf(dur, 0) {
		dur = 0
	}

	t := in.PublishedAt
	dow := int(t.Weekday())
	emojis := countEmoji(in.Description)

	return Post{
		ID:          in.ID,
		AccountID:   in.AccountID,
		Username:    in.Username,
		AccountName: in.AccountName,
		Description: in.Description,
		PostType:    in.PostType,
		Duration:    dur,
		Permalink:   in.Permalink,
		PublishedAt: t,

		DayOfWeek:  dow,
		DayName:    loc.DayName(dow),
		Hour:       t.Hour(),
		Period:     PeriodOf(t.Hour()),
		WeekNumber: WeekNumber(t),

		Views:    views,
		Reach:    reach,
		Likes:    likes,
		Shares:   shares,
		Follows:  nonNeg(in.Follows),
		Comments: comments,
		Saves:    saves,

		EngagementTotal: engTotal,
		EngagementRate:  engRate,
		ReachRate:       reachRate,

		DescriptionLength: utf8.RuneCountInString(in.Description),
		HasEmoji:          emojis > 0,
		EmojiCount:        emojis,
		HashtagCount:      len(hashtagRe.FindAllString(in.Description, -1)),
	}
}

// Input returns the raw fields of p, suitable for persisting.
func (p Post) Input() PostInput {
	return PostInput{
		ID:          p.ID,
		AccountID:   p.AccountID,
		Username:    p.Username,
		AccountName: p.AccountName,
		Description: p.Description,
		PostType:    p.PostType,
		Duration:    p.Duration,
		Permalink:   p.Permalink,
		PublishedAt: p.PublishedAt,
		Views:       p.Views,
		Reach:       p.Reach,
		Likes:       p.Likes,
		Shares:      p.Shares,
		Follows:     p.Follows,
		Comments:    p.Comments,
		Saves:       p.Saves,
	}
}

// WeekNumber returns the week index within the year of t, counting the
// partial first week as week 1.
func WeekNumber(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	days := t.Sub(jan1).Hours() / 24
	return int(math.Ceil((days + float64(jan1.Weekday()) + 1) / 7))
}

func nonNeg(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
