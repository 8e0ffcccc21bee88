package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// SeenStore persists identities of processed items in a local SQLite
// file. It is read once at run start and written once at run end; the
// single-run-at-a-time invariant means no finer locking is needed.
type SeenStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.SeenStore = (*SeenStore)(nil)

// NewSeenStore opens or creates the cache database at path, creating
// parent directories and the schema as needed.
func NewSeenStore(path string) (*SeenStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	store := &SeenStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}

	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return store, nil
}

func (s *SeenStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS seen_items (
		identity     TEXT PRIMARY KEY,
		url          TEXT NOT NULL,
		title        TEXT,
		source_label TEXT,
		score        REAL,
		seen_at      TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_seen_at ON seen_items(seen_at)`)
	return err
}

// LoadSeen returns the set of identities already processed.
func (s *SeenStore) LoadSeen(ctx context.Context) (map[string]struct{}, error) {
	query, args, err := s.sb.Select("identity").From("seen_items").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seen items: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		seen[identity] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return seen, nil
}

// MarkSeen upserts the given items with the provided timestamp. Items
// re-marked after a retention eviction simply refresh their row.
func (s *SeenStore) MarkSeen(ctx context.Context, items []domain.Item, at time.Time) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		var score any
		if item.Score != nil {
			score = *item.Score
		}

		query, args, err := s.sb.
			Insert("seen_items").
			Columns("identity", "url", "title", "source_label", "score", "seen_at").
			Values(item.Identity, item.URL, item.Title, item.SourceLabel, score, at.UTC()).
			Suffix("ON CONFLICT(identity) DO UPDATE SET seen_at = excluded.seen_at, score = excluded.score").
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert item %s: %w", item.Identity, err)
		}
	}

	return tx.Commit()
}

// Evict removes entries seen before the cutoff, keeping the set
// bounded by the retention window. Returns the number of rows removed.
func (s *SeenStore) Evict(ctx context.Context, olderThan time.Time) (int, error) {
	query, args, err := s.sb.
		Delete("seen_items").
		Where(sq.Lt{"seen_at": olderThan.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("evict old items: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Close releases the database handle.
func (s *SeenStore) Close() error {
	return s.db.Close()
}
