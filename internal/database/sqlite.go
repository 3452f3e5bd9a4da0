package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wa-go/internal/database/migrations"
	"wa-go/internal/migrate"
	"wa-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase stores the run history in SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens the history database at path and migrates it to
// the latest schema. path can be a file path or ":memory:".
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every new connection to :memory: is a separate, empty database
		db.SetMaxOpenConns(1)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens a SQLite connection with foreign keys enforced.
// path can be a file path, a file: URI or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite leaves foreign keys off by default
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Run operations

func (s *SQLiteDatabase) CreateRun(runID, command string, startedAt time.Time, dryRun bool) (*model.Run, error) {
	res, err := s.db.Exec(
		"INSERT INTO runs (run_id, command, started_at, status, dry_run) VALUES (?, ?, ?, ?, ?)",
		runID, command, startedAt.UTC(), model.RunRunning, dryRun,
	)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading run id: %w", err)
	}

	return &model.Run{
		ID:        id,
		RunID:     runID,
		Command:   command,
		StartedAt: startedAt.UTC(),
		Status:    model.RunRunning,
		DryRun:    dryRun,
	}, nil
}

func (s *SQLiteDatabase) FinishRun(id int64, status string, at time.Time) error {
	res, err := s.db.Exec("UPDATE runs SET finished_at = ?, status = ? WHERE id = ?", at.UTC(), status, id)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing run: no run with id %d", id)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *SQLiteDatabase) ListRuns(limit int) ([]*model.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		"SELECT id, run_id, command, started_at, finished_at, status, dry_run FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var (
			r        model.Run
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Command, &r.StartedAt, &finished, &r.Status, &r.DryRun); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// FindRun returns the run with the given UUID, or nil if there is none.
func (s *SQLiteDatabase) FindRun(runID string) (*model.Run, error) {
	var (
		r        model.Run
		finished sql.NullTime
	)
	err := s.db.QueryRow(
		"SELECT id, run_id, command, started_at, finished_at, status, dry_run FROM runs WHERE run_id = ?",
		runID,
	).Scan(&r.ID, &r.RunID, &r.Command, &r.StartedAt, &finished, &r.Status, &r.DryRun)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding run: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

// Stage operations

func (s *SQLiteDatabase) AddStage(runID int64, stage, status, detail string, at time.Time) error {
	_, err := s.db.Exec(
		"INSERT INTO run_stages (run_id, stage, status, detail, created_at) VALUES (?, ?, ?, ?, ?)",
		runID, stage, status, detail, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("adding stage %s: %w", stage, err)
	}
	return nil
}

// ListStages returns the stages of a run in the order they were added.
func (s *SQLiteDatabase) ListStages(runID int64) ([]*model.RunStage, error) {
	rows, err := s.db.Query(
		"SELECT id, run_id, stage, status, detail, created_at FROM run_stages WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	defer rows.Close()

	var stages []*model.RunStage
	for rows.Next() {
		var st model.RunStage
		if err := rows.Scan(&st.ID, &st.RunID, &st.Stage, &st.Status, &st.Detail, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning stage: %w", err)
		}
		stages = append(stages, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	return stages, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ migrate.History = (*SQLiteDatabase)(nil)
