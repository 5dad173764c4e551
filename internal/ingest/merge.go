package ingest

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
)

// Strategy decides how an import combines with what is already stored.
type Strategy string

const (
	// StrategyAppendByKey keeps stored posts and overwrites those whose id
	// appears in the import.
	StrategyAppendByKey Strategy = "append"
	// StrategyReplaceAll discards stored posts.
	StrategyReplaceAll Strategy = "replace"
)

var ErrUnknownStrategy = errors.New("unknown merge strategy")

// ParseStrategy accepts "append", "append-by-key", "replace" and
// "replace-all" in any case.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append", "append-by-key", "upsert":
		return StrategyAppendByKey, nil
	case "replace", "replace-all":
		return StrategyReplaceAll, nil
	}
	return "", fmt.Errorf("%w: %q (use append or replace)", ErrUnknownStrategy, s)
}

// Merge combines existing and incoming posts under strategy. Later incoming
// posts win over earlier ones with the same id. The result is sorted newest
// first with ties broken by id.
func Merge(existing, incoming []analysis.Post, strategy Strategy) []analysis.Post {
	byID := make(map[string]int, len(existing)+len(incoming))
	out := make([]analysis.Post, 0, len(existing)+len(incoming))
	put := func(p analysis.Post) {
		if i, ok := byID[p.ID]; ok {
			out[i] = p
			return
		}
		byID[p.ID] = len(out)
		out = append(out, p)
	}
	if strategy != StrategyReplaceAll {
		for _, p := range existing {
			put(p)
		}
	}
	for _, p := range incoming {
		put(p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
