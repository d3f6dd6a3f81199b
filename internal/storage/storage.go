package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"wedding-appgen/internal/models"
)

// ErrJobNotFound is returned when no ledger row has the requested ID.
var ErrJobNotFound = errors.New("job not found")

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	couple_name  TEXT NOT NULL DEFAULT '',
	app_name     TEXT NOT NULL DEFAULT '',
	archive_path TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_status ON jobs(status);
`

// timeLayout is fixed width so timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const jobColumns = `id, status, couple_name, app_name, archive_path, error, created_at, updated_at`

// Storage is the generation ledger: one row per request ID, updated on
// every lifecycle transition.
type Storage struct {
	mu   sync.RWMutex
	db   *sql.DB
	file string
}

// NewStorage opens (creating if needed) the ledger database at filePath
func NewStorage(filePath string) (*Storage, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Storage{db: db, file: filePath}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// AddJob inserts a job or updates the existing row with the same ID. The
// original creation time of an existing row is kept.
func (s *Storage) AddJob(ctx context.Context, job models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}
	if job.Status == "" {
		job.Status = models.StatusCreated
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO jobs (`+jobColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	status       = excluded.status,
	couple_name  = excluded.couple_name,
	app_name     = excluded.app_name,
	archive_path = excluded.archive_path,
	error        = excluded.error,
	updated_at   = excluded.updated_at`,
		job.ID, string(job.Status), job.CoupleName, job.AppName, job.ArchivePath, job.Error,
		formatTime(job.CreatedAt), formatTime(job.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// Transition records a lifecycle change reported by the generator.
func (s *Storage) Transition(ctx context.Context, job models.Job) error {
	return s.AddJob(ctx, job)
}

// GetJob retrieves a job by request ID
func (s *Storage) GetJob(ctx context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateStatus sets the status of a job, and its error text when non-empty
func (s *Storage) UpdateStatus(ctx context.Context, id string, status models.Status, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = CASE WHEN ? = '' THEN error ELSE ? END, updated_at = ? WHERE id = ?`,
		string(status), errText, errText, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

// GetAllJobs returns all jobs, oldest first
func (s *Storage) GetAllJobs(ctx context.Context) ([]models.Job, error) {
	return s.query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at, id`)
}

// GetJobsByStatus returns jobs filtered by status, oldest first
func (s *Storage) GetJobsByStatus(ctx context.Context, status models.Status) ([]models.Job, error) {
	return s.query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at, id`, string(status))
}

func (s *Storage) query(ctx context.Context, q string, args ...any) ([]models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]models.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jobs: %w", err)
	}
	return jobs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*models.Job, error) {
	var (
		job                  models.Job
		status               string
		createdAt, updatedAt string
	)
	err := row.Scan(&job.ID, &status, &job.CoupleName, &job.AppName, &job.ArchivePath, &job.Error, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	job.Status = models.Status(status)
	if job.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if job.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &job, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
