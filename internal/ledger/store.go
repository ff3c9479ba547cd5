// Package ledger keeps a SQLite history of runs and the files they admitted.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one evaluation, as recorded.
type Run struct {
	ID         string
	Mode       string
	Policy     string
	Status     string
	Today      time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Admissions []Admission
	Issues     []Issue
}

// Admission is one admitted file.
type Admission struct {
	Cadence      string
	Folder       string
	OriginalName string
	FinalName    string
	Serial       int
	PeriodKey    string
	Renamed      bool
}

// Issue is one recorded failure.
type Issue struct {
	Folder  string
	File    string
	Kind    string
	Message string
}

// Entry is an admission joined with its run.
type Entry struct {
	Admission
	RunID     string
	Mode      string
	StartedAt time.Time
}

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a run with its admissions and issues in one transaction.
func (s *Store) Record(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, mode, policy, status, today, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Policy, run.Status,
		run.Today.Format(time.DateOnly),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, a := range run.Admissions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO admissions (run_id, cadence, folder, original_name, final_name, serial, period_key, renamed)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, a.Cadence, a.Folder, a.OriginalName, a.FinalName, a.Serial, a.PeriodKey, boolToInt(a.Renamed),
		); err != nil {
			return fmt.Errorf("insert admission %s: %w", a.OriginalName, err)
		}
	}
	for _, i := range run.Issues {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO issues (run_id, folder, file, kind, message) VALUES (?, ?, ?, ?, ?)`,
			run.ID, i.Folder, i.File, i.Kind, i.Message,
		); err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// History returns the most recent admissions, newest first. A limit of
// zero or less returns everything.
func (s *Store) History(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT a.run_id, r.mode, r.started_at, a.cadence, a.folder, a.original_name,
            a.final_name, a.serial, a.period_key, a.renamed
        FROM admissions a JOIN runs r ON r.run_id = a.run_id
        ORDER BY r.started_at DESC, a.id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			started string
			renamed int
		)
		if err := rows.Scan(&e.RunID, &e.Mode, &started, &e.Cadence, &e.Folder, &e.OriginalName,
			&e.FinalName, &e.Serial, &e.PeriodKey, &renamed); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Renamed = renamed != 0
		if e.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Issues returns the issues recorded for a run.
func (s *Store) Issues(ctx context.Context, runID string) ([]Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT folder, file, kind, message FROM issues WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	var out []Issue
	for rows.Next() {
		var i Issue
		if err := rows.Scan(&i.Folder, &i.File, &i.Kind, &i.Message); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// HighestSerial returns the highest serial ever recorded for a cadence, or 0.
func (s *Store) HighestSerial(ctx context.Context, cadence string) (int, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(serial) FROM admissions WHERE cadence = ?`, cadence).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("query highest serial: %w", err)
	}
	return int(n.Int64), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
