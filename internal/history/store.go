// Package history keeps a SQLite log of build runs.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// DefaultLimit caps List when the caller passes no limit.
const DefaultLimit = 20

// Record is one finished build.
type Record struct {
	ID          string    `json:"id"`
	ProjectPath string    `json:"project_path"`
	Platforms   string    `json:"platforms"` // comma list, canonical order
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Success     bool      `json:"success"`
	FailedStage string    `json:"failed_stage,omitempty"`
	OutputBytes int64     `json:"output_bytes"`
}

// Duration is the wall time of the build.
func (r Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists build records in SQLite.
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	dsn := clean + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts rec, assigning an ID when it has none.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ProjectPath == "" {
		return fmt.Errorf("project path is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (
		   id, project_path, platforms, started_at, finished_at,
		   success, failed_stage, output_bytes
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.ProjectPath,
		rec.Platforms,
		toMillis(rec.StartedAt),
		toMillis(rec.FinishedAt),
		rec.Success,
		rec.FailedStage,
		rec.OutputBytes,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// List returns the newest records first. An empty projectPath lists every
// project; limit <= 0 means DefaultLimit.
func (s *Store) List(ctx context.Context, projectPath string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := `SELECT id, project_path, platforms, started_at, finished_at,
	                 success, failed_stage, output_bytes
	            FROM builds`
	args := []any{}
	if projectPath != "" {
		query += ` WHERE project_path = ?`
		args = append(args, projectPath)
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var started, finished int64
		if err := rows.Scan(&rec.ID, &rec.ProjectPath, &rec.Platforms, &started, &finished,
			&rec.Success, &rec.FailedStage, &rec.OutputBytes); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.StartedAt = fromMillis(started)
		rec.FinishedAt = fromMillis(finished)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return out, nil
}
