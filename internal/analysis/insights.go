package analysis

import (
	"fmt"
	"math"
	"strconv"
)

// InsightType is the tone of an insight.
type InsightType string

const (
	InsightSuccess InsightType = "success"
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
	InsightTip     InsightType = "tip"
)

// Impact ranks an insight.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Insight is a templated recommendation derived from the aggregates.
type Insight struct {
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Impact      Impact      `json:"impact"`
	Metric      string      `json:"metric,omitempty"`
	Value       string      `json:"value,omitempty"`
}

// GoodEngagementRate is the average engagement rate (%) above which the
// engagement insight is a success.
const GoodEngagementRate = 5.0

// ShortVideoMaxSeconds separates short from long videos.
const ShortVideoMaxSeconds = 30.0

// GenerateInsights runs the fixed rule battery in order. Each rule appends
// at most one insight; no rule suppresses another. Empty input yields nil.
func GenerateInsights(posts []Post, loc Locale) []Insight {
	if len(posts) == 0 {
		return nil
	}
	var out []Insight

	if byDay := ByDay(posts, loc); len(byDay) > 0 {
		best, worst := byDay[0], byDay[0]
		for _, d := range byDay[1:] {
			if d.AvgViews > best.AvgViews {
				best = d
			}
			if d.AvgViews < worst.AvgViews {
				worst = d
			}
		}
		out = append(out, Insight{
			Type:  InsightSuccess,
			Title: fmt.Sprintf("%s é seu melhor dia", best.Day),
			Description: fmt.Sprintf("Posts publicados na %s têm em média %s visualizações, %s%% mais que %s.",
				best.Day, FormatNumber(best.AvgViews), liftPercent(best.AvgViews, worst.AvgViews), worst.Day),
			Impact: ImpactHigh,
			Metric: "Visualizações",
			Value:  FormatNumber(best.AvgViews),
		})
	}

	if byHour := ByHour(posts); len(byHour) > 0 {
		best := byHour[0]
		for _, h := range byHour[1:] {
			if h.AvgViews > best.AvgViews {
				best = h
			}
		}
		out = append(out, Insight{
			Type:  InsightTip,
			Title: fmt.Sprintf("Melhor horário: %dh", best.Hour),
			Description: fmt.Sprintf("Posts publicados às %dh têm melhor desempenho, com média de %s views.",
				best.Hour, FormatNumber(best.AvgViews)),
			Impact: ImpactHigh,
			Metric: "Horário",
			Value:  fmt.Sprintf("%d:00", best.Hour),
		})
	}

	var short, long viewAcc
	for _, p := range posts {
		if p.Duration <= 0 {
			continue
		}
		if p.Duration <= ShortVideoMaxSeconds {
			short.add(p)
		} else {
			long.add(p)
		}
	}
	if short.n > 0 && long.n > 0 && short.avg() > long.avg() {
		out = append(out, Insight{
			Type:  InsightInfo,
			Title: "Vídeos curtos performam melhor",
			Description: fmt.Sprintf("Vídeos até 30s têm %s%% mais views que vídeos longos. Foque em conteúdo direto.",
				liftPercent(short.avg(), long.avg())),
			Impact: ImpactMedium,
		})
	}

	var engSum float64
	for _, p := range posts {
		engSum += p.EngagementRate
	}
	avgEng := engSum / float64(len(posts))
	eng := Insight{
		Type:        InsightWarning,
		Title:       fmt.Sprintf("Taxa de engajamento: %.2f%%", avgEng),
		Description: "Considere posts mais interativos com perguntas ou CTAs para aumentar o engajamento.",
		Impact:      ImpactHigh,
		Metric:      "Engajamento",
		Value:       fmt.Sprintf("%.2f%%", avgEng),
	}
	if avgEng > GoodEngagementRate {
		eng.Type = InsightSuccess
		eng.Description = "Sua taxa de engajamento está acima da média do Instagram (3-6%). Continue assim!"
	}
	out = append(out, eng)

	top := posts[0]
	for _, p := range posts[1:] {
		if p.Views > top.Views {
			top = p
		}
	}
	out = append(out, Insight{
		Type:  InsightSuccess,
		Title: "Post viral identificado",
		Description: fmt.Sprintf("\"%s...\" alcançou %s views. Analise elementos para replicar.",
			truncateRunes(top.Description, 50), FormatNumber(float64(top.Views))),
		Impact: ImpactHigh,
	})

	var with, without viewAcc
	for _, p := range posts {
		if p.HasEmoji {
			with.add(p)
		} else {
			without.add(p)
		}
	}
	if with.n > 0 && without.n > 0 && with.avg() > without.avg() {
		out = append(out, Insight{
			Type:  InsightTip,
			Title: "Emojis aumentam engajamento",
			Description: fmt.Sprintf("Posts com emojis têm %s%% mais visualizações. Use-os estrategicamente!",
				liftPercent(with.avg(), without.avg())),
			Impact: ImpactMedium,
		})
	}
	return out
}

type viewAcc struct {
	views int64
	n     int
}

func (a *viewAcc) add(p Post) {
	a.views += p.Views
	a.n++
}

func (a *viewAcc) avg() float64 {
	if a.n == 0 {
		return 0
	}
	return float64(a.views) / float64(a.n)
}

// liftPercent renders (a/b - 1) * 100 without decimals; a zero b renders 0.
func liftPercent(a, b float64) string {
	if b == 0 {
		return "0"
	}
	v := math.Round((a/b - 1) * 100)
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// FormatNumber abbreviates millions and thousands with one decimal.
func FormatNumber(v float64) string {
	switch {
	case v >= 1_000_000:
		return strconv.FormatFloat(v/1_000_000, 'f', 1, 64) + "M"
	case v >= 1_000:
		return strconv.FormatFloat(v/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
