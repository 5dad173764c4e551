package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
	"github.com/KaramelBytes/instaloom-cli/internal/logger"
	"github.com/KaramelBytes/instaloom-cli/internal/store"
)

// PostStore is the persistence surface an import writes to.
type PostStore interface {
	UpsertPosts(ctx context.Context, posts []analysis.Post) (int, error)
	ReplaceAll(ctx context.Context, posts []analysis.Post) error
	RecordImport(ctx context.Context, rec store.ImportRecord) error
}

// ImportResult summarizes one import batch.
type ImportResult struct {
	BatchID  string   `json:"batchId"`
	Source   string   `json:"source"`
	Strategy Strategy `json:"strategy"`
	Rows     int      `json:"rows"`
	Parsed   int      `json:"parsed"`
	Dropped  int      `json:"dropped"`
	// Duplicates counts parsed rows superseded by a later row with the same id.
	Duplicates int           `json:"duplicates"`
	Stored     int           `json:"stored"`
	Duration   time.Duration `json:"duration"`
	// Posts are the parsed posts of this batch, newest first.
	Posts []analysis.Post `json:"-"`
}

// Importer runs source rows through the row parser into a store.
type Importer struct {
	Store   PostStore
	Options analysis.ParseOptions
	Log     *logger.Logger
	// DryRun parses without writing.
	DryRun bool
}

// Import reads src, parses its rows and writes them under strategy.
// Rows without a parseable publish time are counted as dropped.
func (im *Importer) Import(ctx context.Context, src Source, strategy Strategy) (*ImportResult, error) {
	log := im.Log
	if log == nil {
		log = logger.Nop()
	}
	if strategy != StrategyAppendByKey && strategy != StrategyReplaceAll {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	start := time.Now()
	res := &ImportResult{BatchID: uuid.NewString(), Source: src.Name(), Strategy: strategy}
	log = log.With("batch", res.BatchID, "source", res.Source)

	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	posts, stats := analysis.ParseRows(rows, im.Options)
	// a later row with the same id replaces an earlier one within the batch
	posts = Merge(nil, posts, StrategyReplaceAll)
	res.Rows, res.Parsed, res.Dropped = stats.Rows, stats.Parsed, stats.Dropped
	res.Duplicates = stats.Parsed - len(posts)
	res.Posts = posts
	if stats.Dropped > 0 {
		log.Warn("dropped rows without a valid publish time", "dropped", stats.Dropped, "rows", stats.Rows)
	}
	if res.Duplicates > 0 {
		log.Debug("collapsed repeated post ids", "duplicates", res.Duplicates)
	}

	if im.DryRun || im.Store == nil {
		res.Duration = time.Since(start)
		return res, nil
	}

	switch strategy {
	case StrategyReplaceAll:
		if err := im.Store.ReplaceAll(ctx, posts); err != nil {
			return nil, fmt.Errorf("replace posts: %w", err)
		}
		res.Stored = len(posts)
	case StrategyAppendByKey:
		n, err := im.Store.UpsertPosts(ctx, posts)
		if err != nil {
			return nil, fmt.Errorf("upsert posts: %w", err)
		}
		res.Stored = n
	}
	res.Duration = time.Since(start)

	if err := im.Store.RecordImport(ctx, store.ImportRecord{
		BatchID:  res.BatchID,
		Source:   res.Source,
		Strategy: string(strategy),
		RowsRead: res.Rows,
		Parsed:   res.Parsed,
		Dropped:  res.Dropped,
		Stored:   res.Stored,
	}); err != nil {
		return nil, err
	}
	log.Info("import complete", "stored", res.Stored, "strategy", string(strategy), "took", res.Duration)
	return res, nil
}
