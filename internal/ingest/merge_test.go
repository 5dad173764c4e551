package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
)

func mk(id string, day int, views int64) analysis.Post {
	return analysis.NewPost(analysis.PostInput{
		ID:          id,
		PublishedAt: time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC),
		Views:       views,
	}, analysis.LocalePTBR)
}

func ids(posts []analysis.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{
		"":              StrategyAppendByKey,
		"Append-By-Key": StrategyAppendByKey,
		"replace":       StrategyReplaceAll,
		"REPLACE-ALL":   StrategyReplaceAll,
	}
	for in, want := range cases {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStrategy("merge")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestMergeAppendByKey(t *testing.T) {
	existing := []analysis.Post{mk("a", 1, 10), mk("b", 2, 20)}
	incoming := []analysis.Post{mk("b", 2, 99), mk("c", 3, 30)}
	out := Merge(existing, incoming, StrategyAppendByKey)
	assert.Equal(t, []string{"c", "b", "a"}, ids(out))
	assert.EqualValues(t, 99, out[1].Views, "incoming wins on the same id")
}

func TestMergeReplaceAll(t *testing.T) {
	out := Merge([]analysis.Post{mk("a", 1, 10)}, []analysis.Post{mk("z", 1, 1), mk("y", 1, 2)}, StrategyReplaceAll)
	assert.Equal(t, []string{"y", "z"}, ids(out), "same timestamp orders by id")
}

func TestMergeDuplicatesWithinBatch(t *testing.T) {
	out := Merge(nil, []analysis.Post{mk("a", 1, 1), mk("a", 5, 2)}, StrategyAppendByKey)
	require.Len(t, out, 1)
	assert.EqualValues(t, 2, out[0].Views)
}
