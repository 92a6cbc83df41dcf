package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mparks/geode/internal/model"

	_ "modernc.org/sqlite"
)

const createJobsTable = `
CREATE TABLE IF NOT EXISTS jobs (
    id          TEXT PRIMARY KEY,
    process_id  TEXT NOT NULL,
    status      TEXT NOT NULL,
    message     TEXT,
    progress    INTEGER NOT NULL DEFAULT 0,
    result_mime TEXT,
    result      BLOB,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL,
    started_at  DATETIME,
    finished_at DATETIME
)`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One pooled connection: SQLite serializes writers anyway, and a second
	// connection to ":memory:" would open a separate empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createJobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create jobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateJob inserts a new job record.
func (s *SQLiteStore) CreateJob(ctx context.Context, j *model.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (
			id, process_id, status, message, progress, result_mime,
			result, created_at, updated_at, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.ProcessID, j.Status, j.Message, j.Progress, j.ResultMIME,
		[]byte(j.Result), j.CreatedAt, j.UpdatedAt, j.StartedAt, j.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return getJob(ctx, s.db, id)
}

// querier covers both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getJob(ctx context.Context, q querier, id string) (*model.Job, error) {
	j := &model.Job{}
	var result []byte
	err := q.QueryRowContext(ctx,
		`SELECT id, process_id, status, message, progress, result_mime,
			result, created_at, updated_at, started_at, finished_at
		FROM jobs WHERE id = ?`, id,
	).Scan(
		&j.ID, &j.ProcessID, &j.Status, &j.Message, &j.Progress, &j.ResultMIME,
		&result, &j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	j.Result = json.RawMessage(result)
	return j, nil
}

// ListJobs returns a paginated list of jobs ordered by created_at DESC
// (newest first), along with the total count of all jobs.
func (s *SQLiteStore) ListJobs(ctx context.Context, limit, offset int) ([]*model.Job, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, process_id, status, message, progress, result_mime,
			result, created_at, updated_at, started_at, finished_at
		FROM jobs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j := &model.Job{}
		var result []byte
		if err := rows.Scan(
			&j.ID, &j.ProcessID, &j.Status, &j.Message, &j.Progress, &j.ResultMIME,
			&result, &j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.FinishedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		j.Result = json.RawMessage(result)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate jobs: %w", err)
	}

	return jobs, total, nil
}

// UpdateJobStatus advances a job to the given status. The transition is
// checked against the state machine inside a transaction so concurrent writers
// are serialized per job. Moving to running sets started_at; moving to a
// terminal status sets finished_at.
func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, id, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := getJob(ctx, tx, id)
	if err != nil {
		return err
	}
	if !model.ValidTransition(current.Status, status) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current.Status, status)
	}

	now := time.Now().UTC()
	switch {
	case status == model.StatusRunning:
		_, err = tx.ExecContext(ctx,
			"UPDATE jobs SET status = ?, updated_at = ?, started_at = ? WHERE id = ?",
			status, now, now, id,
		)
	case model.Terminal(status):
		_, err = tx.ExecContext(ctx,
			"UPDATE jobs SET status = ?, updated_at = ?, finished_at = ? WHERE id = ?",
			status, now, now, id,
		)
	default:
		_, err = tx.ExecContext(ctx,
			"UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?",
			status, now, id,
		)
	}
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}

	return tx.Commit()
}

// CompleteJob transitions a running job to successful and stores its result.
// Status and result change in one statement, so a reader never observes a
// successful job without its result.
func (s *SQLiteStore) CompleteJob(ctx context.Context, id, mimetype string, result json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := getJob(ctx, tx, id)
	if err != nil {
		return err
	}
	if !model.ValidTransition(current.Status, model.StatusSuccessful) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current.Status, model.StatusSuccessful)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, progress = 100, result_mime = ?, result = ?,
			updated_at = ?, finished_at = ? WHERE id = ?`,
		model.StatusSuccessful, mimetype, []byte(result), now, now, id,
	)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	return tx.Commit()
}

// FailJob transitions a job to failed with the given error message. Failure is
// terminal; the engine never retries.
func (s *SQLiteStore) FailJob(ctx context.Context, id, message string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := getJob(ctx, tx, id)
	if err != nil {
		return err
	}
	if !model.ValidTransition(current.Status, model.StatusFailed) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current.Status, model.StatusFailed)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		"UPDATE jobs SET status = ?, message = ?, updated_at = ?, finished_at = ? WHERE id = ?",
		model.StatusFailed, message, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}

	return tx.Commit()
}

// GetJobResult returns the result of a successful job. It returns ErrNotFound
// for unknown or pruned jobs and ErrNotReady while the job is in any
// non-successful state.
func (s *SQLiteStore) GetJobResult(ctx context.Context, id string) (*Result, error) {
	var status, mime string
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT status, COALESCE(result_mime, ''), result FROM jobs WHERE id = ?", id,
	).Scan(&status, &mime, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job result: %w", err)
	}

	if status != model.StatusSuccessful {
		return nil, fmt.Errorf("%w: status is %s", ErrNotReady, status)
	}

	return &Result{MIME: mime, Payload: json.RawMessage(payload)}, nil
}

// DeleteJobsBefore removes terminal jobs that finished before cutoff and
// returns the number of rows evicted. Evicted ids read as ErrNotFound
// afterwards.
func (s *SQLiteStore) DeleteJobsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE status IN (?, ?, ?)
			AND finished_at IS NOT NULL AND finished_at < ?`,
		model.StatusSuccessful, model.StatusFailed, model.StatusDismissed, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete jobs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return n, nil
}

// GetJobStats returns aggregate counts and the average duration of finished jobs.
func (s *SQLiteStore) GetJobStats(ctx context.Context) (*JobStats, error) {
	stats := &JobStats{
		CountByStatus:  make(map[string]int),
		CountByProcess: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM jobs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.CountByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	procRows, err := s.db.QueryContext(ctx, "SELECT process_id, COUNT(*) FROM jobs GROUP BY process_id")
	if err != nil {
		return nil, fmt.Errorf("count by process: %w", err)
	}
	defer procRows.Close()
	for procRows.Next() {
		var processID string
		var count int
		if err := procRows.Scan(&processID, &count); err != nil {
			return nil, fmt.Errorf("scan process count: %w", err)
		}
		stats.CountByProcess[processID] = count
	}
	if err := procRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate process counts: %w", err)
	}

	var avg sql.NullFloat64
	err = s.db.QueryRowContext(ctx,
		`SELECT AVG((julianday(finished_at) - julianday(started_at)) * 86400000.0)
		FROM jobs WHERE started_at IS NOT NULL AND finished_at IS NOT NULL`,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("average duration: %w", err)
	}
	if avg.Valid {
		stats.AvgDurationMS = avg.Float64
	}

	return stats, nil
}
