package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mparks/geode/internal/model"
	"github.com/mparks/geode/internal/process"
	"github.com/mparks/geode/internal/store"
	"github.com/mparks/geode/internal/validate"
)

// ErrNoSuchProcess is returned when the requested process id is not registered.
var ErrNoSuchProcess = errors.New("no such process")

// ExecutionError wraps a failure raised by a process implementation. The
// message is surfaced verbatim to the caller; the engine never retries.
type ExecutionError struct {
	ProcessID string
	Err       error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Engine orchestrates process execution against the registry and job store.
type Engine struct {
	store    store.Store
	registry *process.Registry
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewEngine creates a new execution engine.
func NewEngine(s store.Store, reg *process.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		store:    s,
		registry: reg,
		logger:   logger,
	}
}

// Execute runs a process synchronously on the calling goroutine and returns
// the result media type and payload. No job record is created; the call blocks
// for the full computation duration.
func (e *Engine) Execute(ctx context.Context, processID string, inputs map[string]any) (string, any, error) {
	proc, validated, err := e.resolve(processID, inputs)
	if err != nil {
		return "", nil, err
	}

	start := time.Now()
	mimetype, result, err := proc.Execute(validated)
	observeExecution(processID, "sync", err, time.Since(start))
	if err != nil {
		return "", nil, &ExecutionError{ProcessID: processID, Err: err}
	}
	return mimetype, result, nil
}

// Submit runs a process asynchronously. It validates inputs, creates a job
// with status accepted, and launches a goroutine that drives the job through
// running to successful or failed. The returned job snapshot reflects the
// accepted state; callers poll the store for progress.
func (e *Engine) Submit(ctx context.Context, processID string, inputs map[string]any) (*model.Job, error) {
	proc, validated, err := e.resolve(processID, inputs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &model.Job{
		ID:        model.NewID(),
		ProcessID: processID,
		Status:    model.StatusAccepted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	activeJobs.Inc()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer activeJobs.Dec()
		e.run(job.ID, processID, proc, validated)
	}()

	snapshot := *job
	return &snapshot, nil
}

// Wait blocks until all in-flight job goroutines complete.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// resolve looks up the process and validates inputs. Both error kinds must be
// reported before any job record exists.
func (e *Engine) resolve(processID string, inputs map[string]any) (process.Processor, map[string]any, error) {
	proc, ok := e.registry.Lookup(processID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoSuchProcess, processID)
	}

	validated, err := validate.Inputs(proc.Describe(), inputs)
	if err != nil {
		return nil, nil, err
	}
	return proc, validated, nil
}

// run drives one async job: accepted→running, execute, then
// successful (storing the result) or failed (storing the error message).
func (e *Engine) run(jobID, processID string, proc process.Processor, inputs map[string]any) {
	ctx := context.Background()

	if err := e.store.UpdateJobStatus(ctx, jobID, model.StatusRunning); err != nil {
		// The job may have been dismissed between creation and pickup; that
		// surfaces here as an invalid accepted→running transition.
		if errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
			e.logger.Info("job no longer runnable", "job_id", jobID, "error", err)
			return
		}
		e.logger.Error("failed to transition to running", "job_id", jobID, "error", err)
		e.fail(ctx, jobID, fmt.Sprintf("failed to start: %v", err))
		return
	}

	start := time.Now()
	mimetype, result, err := proc.Execute(inputs)
	observeExecution(processID, "async", err, time.Since(start))

	if err != nil {
		e.fail(ctx, jobID, err.Error())
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		e.fail(ctx, jobID, fmt.Sprintf("encode result: %v", err))
		return
	}

	if err := e.store.CompleteJob(ctx, jobID, mimetype, payload); err != nil {
		e.logger.Error("failed to complete job", "job_id", jobID, "error", err)
	}
}

func (e *Engine) fail(ctx context.Context, jobID, message string) {
	if err := e.store.FailJob(ctx, jobID, message); err != nil {
		e.logger.Error("failed to mark job failed", "job_id", jobID, "error", err)
	}
}
