package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	defaultListLimit = 20
	// fixed width keeps lexical and chronological order aligned
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Run is one finished session.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	URL            string
	Title          string
	OutputDir      string
	Interval       time.Duration
	Frames         int
	PDFPath        string
	PDFSize        int64
	CompressedPath string
	CompressedSize int64
	TranscriptPath string
	State          string
	Error          string
}

// Store wraps the ledger database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the ledger at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("history: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
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

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts run, assigning an ID when empty. The stored run is returned.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (
		id, started_at, finished_at, url, title, output_dir, interval_ms, frames,
		pdf_path, pdf_bytes, compressed_path, compressed_bytes, transcript_path, state, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.URL,
		run.Title,
		run.OutputDir,
		run.Interval.Milliseconds(),
		run.Frames,
		run.PDFPath,
		run.PDFSize,
		run.CompressedPath,
		run.CompressedSize,
		run.TranscriptPath,
		run.State,
		run.Error,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first. A non-positive limit uses the
// default.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, started_at, finished_at, url, title, output_dir, interval_ms, frames,
		pdf_path, pdf_bytes, compressed_path, compressed_bytes, transcript_path, state, error
		FROM runs ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		var intervalMS int64
		if err := rows.Scan(
			&run.ID, &started, &finished, &run.URL, &run.Title, &run.OutputDir, &intervalMS, &run.Frames,
			&run.PDFPath, &run.PDFSize, &run.CompressedPath, &run.CompressedSize, &run.TranscriptPath, &run.State, &run.Error,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(timeLayout, started)
		run.FinishedAt, _ = time.Parse(timeLayout, finished)
		run.Interval = time.Duration(intervalMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
