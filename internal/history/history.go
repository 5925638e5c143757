// Package history is the optional Postgres audit trail for archive runs
// (domain-stack addition, wired only when the manager config carries a
// DSN). It gives the Scheduler and Archive Executor a durable record
// beyond the per-archive YAML state, which only ever holds the latest run.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/rpienaar/vaultkeeper/internal/record"
)

// Run is one row of the run-history table: the outcome of a single
// archive run.
type Run struct {
	Archive      string
	Rule         record.Rule
	SetIndex     int
	Status       record.RunStatus
	TargetsTotal int
	TargetsOK    int
	BytesWritten int64
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Store wraps a *sql.DB and upserts run-history rows, grounded on the
// same INSERT ... ON CONFLICT pattern the teacher uses for its own
// upserts.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection with Ping, the
// same connect-then-ping sequence the teacher's HTTP service main uses.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already-opened *sql.DB, for callers that manage the
// connection lifecycle themselves.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun upserts one row per (archive, rule, setIndex), keyed so a
// re-run of the same set slot overwrites rather than duplicates.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	query := `
		INSERT INTO runs (archive, rule, set_index, status, targets_total, targets_ok, bytes_written, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (archive, rule, set_index) DO UPDATE SET
			status = EXCLUDED.status,
			targets_total = EXCLUDED.targets_total,
			targets_ok = EXCLUDED.targets_ok,
			bytes_written = EXCLUDED.bytes_written,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		r.Archive, string(r.Rule), r.SetIndex, string(r.Status),
		r.TargetsTotal, r.TargetsOK, r.BytesWritten, r.StartedAt, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("record run for %s: %w", r.Archive, err)
	}
	return nil
}

// ListForArchive returns every recorded run for one archive, most recent
// first.
func (s *Store) ListForArchive(ctx context.Context, archive string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT archive, rule, set_index, status, targets_total, targets_ok, bytes_written, started_at, completed_at
		FROM runs WHERE archive = $1 ORDER BY completed_at DESC
	`, archive)
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", archive, err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var rule, status string
		if err := rows.Scan(&r.Archive, &rule, &r.SetIndex, &status, &r.TargetsTotal, &r.TargetsOK, &r.BytesWritten, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		r.Rule = record.Rule(rule)
		r.Status = record.RunStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListRecent returns the most recent run per archive across all archives,
// for a dashboard-style overview.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (archive) archive, rule, set_index, status, targets_total, targets_ok, bytes_written, started_at, completed_at
		FROM runs ORDER BY archive, completed_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var rule, status string
		if err := rows.Scan(&r.Archive, &rule, &r.SetIndex, &status, &r.TargetsTotal, &r.TargetsOK, &r.BytesWritten, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		r.Rule = record.Rule(rule)
		r.Status = record.RunStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}
