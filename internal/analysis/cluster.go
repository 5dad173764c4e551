package analysis

import "sort"

// Tier identifies a performance cluster.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

var tierLabels = [3]string{"Baixo Desempenho", "Desempenho Médio", "Alto Desempenho"}

// Label returns the display name of the tier.
func (t Tier) Label() string {
	if t < TierLow || t > TierHigh {
		return ""
	}
	return tierLabels[t]
}

// ClusterWeights weight the max-normalized views, reach and engagement total
// in the composite score.
type ClusterWeights struct {
	Views      float64 `json:"views" mapstructure:"views" yaml:"views"`
	Reach      float64 `json:"reach" mapstructure:"reach" yaml:"reach"`
	Engagement float64 `json:"engagement" mapstructure:"engagement" yaml:"engagement"`
}

// DefaultClusterWeights returns 0.40 / 0.35 / 0.25.
func DefaultClusterWeights() ClusterWeights {
	return ClusterWeights{Views: 0.40, Reach: 0.35, Engagement: 0.25}
}

// Centroid holds raw (unnormalized) per-tier averages.
type Centroid struct {
	Views      float64 `json:"views"`
	Reach      float64 `json:"reach"`
	Likes      float64 `json:"likes"`
	Engagement float64 `json:"engagement"`
}

// Cluster is one performance tier.
type Cluster struct {
	ID       Tier     `json:"clusterId"`
	Label    string   `json:"label"`
	Posts    []Post   `json:"posts"`
	Centroid Centroid `json:"centroid"`
}

// ClusterByPerformance splits posts into low, medium and high tiers by rank
// of a weighted composite score. This is a percentile split, not k-means: the
// ascending score order is cut into floor(n/3), floor(n/3) and the remainder.
// Fewer than three posts yields nil.
func ClusterByPerformance(posts []Post, w ClusterWeights) []Cluster {
	n := len(posts)
	if n < 3 {
		return nil
	}
	var maxViews, maxReach, maxEng int64
	for _, p := range posts {
		if p.Views > maxViews {
			maxViews = p.Views
		}
		if p.Reach > maxReach {
			maxReach = p.Reach
		}
		if p.EngagementTotal > maxEng {
			maxEng = p.EngagementTotal
		}
	}
	type scored struct {
		post  Post
		score float64
	}
	ranked := make([]scored, n)
	for i, p := range posts {
		ranked[i] = scored{
			post: p,
			score: w.Views*ratio(p.Views, maxViews) +
				w.Reach*ratio(p.Reach, maxReach) +
				w.Engagement*ratio(p.EngagementTotal, maxEng),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score < ranked[j].score })

	third := n / 3
	bounds := [4]int{0, third, 2 * third, n}
	out := make([]Cluster, 3)
	for t := TierLow; t <= TierHigh; t++ {
		members := make([]Post, 0, bounds[t+1]-bounds[t])
		for _, s := range ranked[bounds[t]:bounds[t+1]] {
			members = append(members, s.post)
		}
		out[t] = Cluster{ID: t, Label: t.Label(), Posts: members, Centroid: centroidOf(members)}
	}
	return out
}

func ratio(v, max int64) float64 {
	if max <= 0 {
		return 0
	}
	return float64(v) / float64(max)
}

func centroidOf(posts []Post) Centroid {
	if len(posts) == 0 {
		return Centroid{}
	}
	var c Centroid
	for _, p := range posts {
		c.Views += float64(p.Views)
		c.Reach += float64(p.Reach)
		c.Likes += float64(p.Likes)
		c.Engagement += float64(p.EngagementTotal)
	}
	n := float64(len(posts))
	c.Views /= n
	c.Reach /= n
	c.Likes /= n
	c.Engagement /= n
	return c
}
