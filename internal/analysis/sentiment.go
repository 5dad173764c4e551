package analysis

import "strings"

// SentimentLabel is the sign of a sentiment score.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Sentiment is the lexicon score of one text.
type Sentiment struct {
	Score int            `json:"score"`
	Label SentimentLabel `json:"label"`
}

// Lexicon lists the keywords and emoji that count as positive or negative.
type Lexicon struct {
	Positive []string `json:"positive" mapstructure:"positive" yaml:"positive"`
	Negative []string `json:"negative" mapstructure:"negative" yaml:"negative"`
}

// DefaultLexicon returns the Portuguese keyword and emoji lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: []string{
			"amor", "incrível", "maravilhoso", "excelente", "ótimo", "lindo", "perfeito",
			"feliz", "sucesso", "parabéns", "❤️", "🔥", "👏", "💪", "🎉", "😍", "🥰", "💯",
		},
		Negative: []string{
			"ruim", "péssimo", "horrível", "triste", "problema", "erro", "falha",
			"nunca", "pior", "😢", "😭", "😡", "👎",
		},
	}
}

// ScoreSentiment counts the lexicon entries found as case-insensitive
// substrings of text. Each entry counts at most once.
func ScoreSentiment(text string, lex Lexicon) Sentiment {
	lower := strings.ToLower(text)
	score := countHits(lower, lex.Positive) - countHits(lower, lex.Negative)
	switch {
	case score > 0:
		return Sentiment{Score: score, Label: SentimentPositive}
	case score < 0:
		return Sentiment{Score: score, Label: SentimentNegative}
	}
	return Sentiment{Label: SentimentNeutral}
}

func countHits(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if w == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(w)) {
			n++
		}
	}
	return n
}

// SentimentGroup summarizes the posts sharing one label.
type SentimentGroup struct {
	Label         SentimentLabel `json:"label"`
	Count         int            `json:"count"`
	AvgEngagement float64        `json:"avgEngagement"` // mean engagement total
}

// SentimentBreakdown scores each description and returns the positive,
// neutral and negative groups in that order.
func SentimentBreakdown(posts []Post, lex Lexicon) []SentimentGroup {
	out := []SentimentGroup{
		{Label: SentimentPositive},
		{Label: SentimentNeutral},
		{Label: SentimentNegative},
	}
	sums := make([]int64, len(out))
	for _, p := range posts {
		var i int
		switch ScoreSentiment(p.Description, lex).Label {
		case SentimentPositive:
			i = 0
		case SentimentNeutral:
			i = 1
		default:
			i = 2
		}
		out[i].Count++
		sums[i] += p.EngagementTotal
	}
	for i := range out {
		div := out[i].Count
		if div == 0 {
			div = 1
		}
		out[i].AvgEngagement = float64(sums[i]) / float64(div)
	}
	return out
}
