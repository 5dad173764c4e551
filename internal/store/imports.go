package store

import (
	"context"
	"fmt"
	"time"
)

// createdLayout has a fixed-width fraction so text ordering matches time order.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ImportRecord is one completed import batch.
type ImportRecord struct {
	BatchID   string    `json:"batchId"`
	Source    string    `json:"source"`
	Strategy  string    `json:"strategy"`
	RowsRead  int       `json:"rowsRead"`
	Parsed    int       `json:"parsed"`
	Dropped   int       `json:"dropped"`
	Stored    int       `json:"stored"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecordImport appends rec to the import history.
func (s *Store) RecordImport(ctx context.Context, rec ImportRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO imports (batch_id, source, strategy, rows_read, parsed, dropped, stored, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BatchID, rec.Source, rec.Strategy, rec.RowsRead, rec.Parsed, rec.Dropped, rec.Stored,
		rec.CreatedAt.UTC().Format(createdLayout))
	if err != nil {
		return fmt.Errorf("recording import %s: %w", rec.BatchID, err)
	}
	return nil
}

// ListImports returns the most recent imports first. limit <= 0 returns all.
func (s *Store) ListImports(ctx context.Context, limit int) ([]ImportRecord, error) {
	q := `SELECT batch_id, source, strategy, rows_read, parsed, dropped, stored, created_at
		FROM imports ORDER BY created_at DESC, batch_id`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying imports: %w", err)
	}
	defer rows.Close()

	var out []ImportRecord
	for rows.Next() {
		var (
			rec     ImportRecord
			created string
		)
		if err := rows.Scan(&rec.BatchID, &rec.Source, &rec.Strategy, &rec.RowsRead, &rec.Parsed,
			&rec.Dropped, &rec.Stored, &created); err != nil {
			return nil, fmt.Errorf("scanning import: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("import %s: bad created_at %q: %w", rec.BatchID, created, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating imports: %w", err)
	}
	return out, nil
}
