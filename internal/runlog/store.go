// Package runlog persists bridge runs and the summaries they produced to SQLite.
package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const (
	// DataDirEnv is the env var override for the ~/.discord-bridge base (for testing).
	DataDirEnv = "DISCORD_BRIDGE_DATA_DIR"
	// DefaultDataBase is the default data directory under the user's home.
	DefaultDataBase = ".discord-bridge"
	// DBFile is the database file name inside the data directory.
	DBFile = "runs.db"
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning Status = "running"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Run is one bridge invocation.
type Run struct {
	ID       string
	Input    string
	DryRun   bool
	Started  time.Time
	Finished time.Time // zero while running
	Status   Status
	Files    int
	Error    string
}

// Summary is one Markdown report written by a run.
type Summary struct {
	RunID      string
	Channel    string
	Date       string
	OutputPath string
	Created    time.Time
}

// Stats aggregates the run log for the dashboard.
type Stats struct {
	TotalSummaries int
	ActiveChannels int
	LastRun        *Run
}

// Store reads and writes the run log.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// DataDir returns $DISCORD_BRIDGE_DATA_DIR or ~/.discord-bridge.
func DataDir() (string, error) {
	if base := os.Getenv(DataDirEnv); base != "" {
		return base, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDataBase), nil
}

// OpenDefault opens runs.db inside DataDir.
func OpenDefault() (*Store, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(dir, DBFile))
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("runlog: ensure dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("pragma busy_timeout=2000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("runlog: set busy_timeout: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("runlog: schema: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    input TEXT NOT NULL,
    dry_run INTEGER NOT NULL DEFAULT 0,
    started_at INTEGER NOT NULL,
    finished_at INTEGER,
    status TEXT NOT NULL,
    files INTEGER NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS summaries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    channel TEXT NOT NULL,
    date TEXT NOT NULL,
    output_path TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun records a new running run and returns it.
func (s *Store) StartRun(ctx context.Context, input string, dryRun bool) (Run, error) {
	r := Run{
		ID:      uuid.NewString(),
		Input:   input,
		DryRun:  dryRun,
		Started: s.now().UTC(),
		Status:  StatusRunning,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input, dry_run, started_at, status) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Input, boolToInt(r.DryRun), r.Started.UnixMilli(), string(r.Status))
	if err != nil {
		return Run{}, fmt.Errorf("runlog: start run: %w", err)
	}
	return r, nil
}

// FinishRun marks a run as finished. A non-nil runErr marks it failed.
func (s *Store) FinishRun(ctx context.Context, id string, files int, runErr error) error {
	status, msg := StatusOK, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, files = ?, error = ? WHERE id = ?`,
		s.now().UTC().UnixMilli(), string(status), files, msg, id)
	if err != nil {
		return fmt.Errorf("runlog: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("runlog: unknown run %s", id)
	}
	return nil
}

// AddSummary records a report written by run runID.
func (s *Store) AddSummary(ctx context.Context, sum Summary) error {
	if sum.Created.IsZero() {
		sum.Created = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (run_id, channel, date, output_path, created_at) VALUES (?, ?, ?, ?, ?)`,
		sum.RunID, sum.Channel, sum.Date, sum.OutputPath, sum.Created.UnixMilli())
	if err != nil {
		return fmt.Errorf("runlog: add summary: %w", err)
	}
	return nil
}

// RecentRuns returns up to n runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input, dry_run, started_at, finished_at, status, files, error
		   FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("runlog: recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Stats returns total summaries, distinct channels and the latest run.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT channel) FROM summaries`).Scan(&st.TotalSummaries, &st.ActiveChannels)
	if err != nil {
		return Stats{}, fmt.Errorf("runlog: stats: %w", err)
	}
	runs, err := s.RecentRuns(ctx, 1)
	if err != nil {
		return Stats{}, err
	}
	if len(runs) > 0 {
		st.LastRun = &runs[0]
	}
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var dry int
	var started int64
	var finished sql.NullInt64
	var status string
	if err := sc.Scan(&r.ID, &r.Input, &dry, &started, &finished, &status, &r.Files, &r.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("runlog: scan run: %w", err)
	}
	r.DryRun = dry != 0
	r.Started = time.UnixMilli(started).UTC()
	if finished.Valid {
		r.Finished = time.UnixMilli(finished.Int64).UTC()
	}
	r.Status = Status(status)
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
