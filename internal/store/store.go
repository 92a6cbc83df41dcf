package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mparks/geode/internal/model"
)

// ErrNotFound is returned when a job does not exist (or has been pruned).
var ErrNotFound = errors.New("job not found")

// ErrInvalidTransition is returned when a job status transition is not allowed
// by the state machine. Reaching it from external input is a programming error.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNotReady is returned when a job's results are requested before the job
// has reached the successful state.
var ErrNotReady = errors.New("job results not ready")

// Result is a completed job's output: a media type plus the raw payload.
type Result struct {
	MIME    string
	Payload json.RawMessage
}

// JobStats holds aggregate job execution statistics.
type JobStats struct {
	Total          int            `json:"total"`
	CountByStatus  map[string]int `json:"count_by_status"`
	CountByProcess map[string]int `json:"count_by_process"`
	AvgDurationMS  float64        `json:"avg_duration_ms"`
}

// Store defines the persistence operations for jobs. A single job's
// transitions are serialized by the implementation, so readers never observe
// a successful status without its result or vice versa.
type Store interface {
	CreateJob(ctx context.Context, j *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	ListJobs(ctx context.Context, limit, offset int) ([]*model.Job, int, error)
	UpdateJobStatus(ctx context.Context, id, status string) error
	CompleteJob(ctx context.Context, id, mimetype string, result json.RawMessage) error
	FailJob(ctx context.Context, id, message string) error
	GetJobResult(ctx context.Context, id string) (*Result, error)
	DeleteJobsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	GetJobStats(ctx context.Context) (*JobStats, error)
	Close() error
}
