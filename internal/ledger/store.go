package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is the SQLite-backed ledger. Safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time check.
var _ Recorder = (*Store)(nil)

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Record inserts rec. An empty ID is replaced with a random UUID and a zero
// CreatedAt with the current time.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.Kind == "" || rec.Path == "" {
		return fmt.Errorf("ledger: record requires kind and path")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, kind, tool, path, title, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Kind),
		rec.Tool,
		rec.Path,
		rec.Title,
		rec.Status,
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("ledger: insert %s: %w", rec.Path, err)
	}
	return nil
}

// Get returns the record with the given ID or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, tool, path, title, status, created_at
		FROM artifacts WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// List returns records matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := "SELECT id, kind, tool, path, title, status, created_at FROM artifacts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	return out, nil
}

// CountPending returns how many proposals are awaiting operator review.
// When olderThan is positive only proposals created before now-olderThan
// are counted.
func (s *Store) CountPending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-max(olderThan, 0)).UTC().Format(timeLayout)

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM artifacts
		WHERE status = ? AND kind IN (?, ?) AND created_at <= ?`,
		StatusPending, string(KindConfigChange), string(KindChange), cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ledger: count pending: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec       Record
		kind      string
		createdAt string
	)
	if err := sc.Scan(&rec.ID, &kind, &rec.Tool, &rec.Path, &rec.Title, &rec.Status, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("ledger: scan: %w", err)
	}
	rec.Kind = Kind(kind)

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("ledger: parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = t
	return rec, nil
}
