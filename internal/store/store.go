// Package store persists posts and import history in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
	"github.com/KaramelBytes/instaloom-cli/internal/logger"
	"github.com/KaramelBytes/instaloom-cli/internal/store/migrations"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is a SQLite-backed post collection keyed by post id.
type Store struct {
	db   *sql.DB
	path string
	log  *logger.Logger
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, path: path, log: log}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Path() string { return s.path }

func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)
	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations(version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		s.log.Debug("applied migration", "name", name)
	}
	return nil
}

const upsertPostSQL = `
	INSERT INTO posts (
		post_id, account_id, username, account_name, description, post_type,
		duration, permalink, published_at, published_ts,
		views, reach, likes, shares, follows, comments, saves
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(post_id) DO UPDATE SET
		account_id = excluded.account_id,
		username = excluded.username,
		account_name = excluded.account_name,
		description = excluded.description,
		post_type = excluded.post_type,
		duration = excluded.duration,
		permalink = excluded.permalink,
		published_at = excluded.published_at,
		published_ts = excluded.published_ts,
		views = excluded.views,
		reach = excluded.reach,
		likes = excluded.likes,
		shares = excluded.shares,
		follows = excluded.follows,
		comments = excluded.comments,
		saves = excluded.saves,
		updated_at = CURRENT_TIMESTAMP`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, ex execer, posts []analysis.Post) error {
	for _, p := range posts {
		in := p.Input()
		if _, err := ex.ExecContext(ctx, upsertPostSQL,
			in.ID, in.AccountID, in.Username, in.AccountName, in.Description, in.PostType,
			in.Duration, in.Permalink, in.PublishedAt.Format(time.RFC3339Nano), in.PublishedAt.Unix(),
			in.Views, in.Reach, in.Likes, in.Shares, in.Follows, in.Comments, in.Saves,
		); err != nil {
			return fmt.Errorf("upserting post %s: %w", in.ID, err)
		}
	}
	return nil
}

// UpsertPosts inserts posts, updating every column of rows whose post_id
// already exists. It runs in one transaction and returns the number written.
func (s *Store) UpsertPosts(ctx context.Context, posts []analysis.Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error { return upsert(ctx, tx, posts) })
	if err != nil {
		return 0, err
	}
	return len(posts), nil
}

// ReplaceAll deletes every post and writes posts in a single transaction.
func (s *Store) ReplaceAll(ctx context.Context, posts []analysis.Post) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM posts"); err != nil {
			return fmt.Errorf("clearing posts: %w", err)
		}
		return upsert(ctx, tx, posts)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListOptions controls how stored rows are rebuilt into posts.
type ListOptions struct {
	Locale analysis.Locale
	// Location converts publish times before derivation. Nil keeps the
	// stored offset.
	Location *time.Location
	// Limit caps the result; zero means all.
	Limit int
}

const selectPostSQL = `
	SELECT post_id, account_id, username, account_name, description, post_type,
		duration, permalink, published_at,
		views, reach, likes, shares, follows, comments, saves
	FROM posts`

// ListPosts returns stored posts newest first, re-derived with opt.Locale.
func (s *Store) ListPosts(ctx context.Context, opt ListOptions) ([]analysis.Post, error) {
	q := selectPostSQL + " ORDER BY published_ts DESC, post_id"
	var args []any
	if opt.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opt.Limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []analysis.Post //nolint:prealloc // size unknown from query
	for rows.Next() {
		p, err := scanPost(rows, opt)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	return posts, nil
}

// GetPost returns one post or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id string, opt ListOptions) (analysis.Post, error) {
	row := s.db.QueryRowContext(ctx, selectPostSQL+" WHERE post_id = ?", id)
	p, err := scanPost(row, opt)
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.Post{}, ErrNotFound
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(sc scanner, opt ListOptions) (analysis.Post, error) {
	var (
		in        analysis.PostInput
		published string
	)
	if err := sc.Scan(&in.ID, &in.AccountID, &in.Username, &in.AccountName, &in.Description, &in.PostType,
		&in.Duration, &in.Permalink, &published,
		&in.Views, &in.Reach, &in.Likes, &in.Shares, &in.Follows, &in.Comments, &in.Saves); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return analysis.Post{}, err
		}
		return analysis.Post{}, fmt.Errorf("scanning post: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, published)
	if err != nil {
		return analysis.Post{}, fmt.Errorf("post %s: bad published_at %q: %w", in.ID, published, err)
	}
	if opt.Location != nil {
		t = t.In(opt.Location)
	}
	in.PublishedAt = t
	loc := opt.Locale
	if loc.Name == "" {
		loc = analysis.LocalePTBR
	}
	return analysis.NewPost(in, loc), nil
}

// Count returns the number of stored posts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}

// Clear deletes every post and returns how many were removed. Import history
// is kept.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts")
	if err != nil {
		return 0, fmt.Errorf("clearing posts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
