package workers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Worker is a background job consumer with a start/stop lifecycle
type Worker interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error // drains queued jobs first
	Name() string
	IsRunning() bool
	Stats() WorkerStats
}

// WorkerStats represents statistics about a worker
type WorkerStats struct {
	WorkerName         string        `json:"worker_name"`
	JobsProcessed      int64         `json:"jobs_processed"`
	JobsSucceeded      int64         `json:"jobs_succeeded"`
	JobsFailed         int64         `json:"jobs_failed"`
	JobsDropped        int64         `json:"jobs_dropped"`
	AverageProcessTime time.Duration `json:"average_process_time"`
	LastJobTime        time.Time     `json:"last_job_time,omitempty"`
	Uptime             time.Duration `json:"uptime"`
	IsRunning          bool          `json:"is_running"`
}

// WorkerConfig holds configuration for workers
type WorkerConfig struct {
	WorkerName      string
	Concurrency     int           // goroutines draining the queue
	QueueSize       int           // jobs waiting beyond this are dropped
	ShutdownTimeout time.Duration // how long Stop waits for the queue to drain
	MaxRetries      int           // retries after the first attempt
	RetryDelay      time.Duration // pause between attempts
	EnableRecovery  bool          // turn job panics into failures
}

// DefaultWorkerConfig returns a worker configuration with sensible defaults
func DefaultWorkerConfig(workerName string) WorkerConfig {
	return WorkerConfig{
		WorkerName:      workerName,
		Concurrency:     2,
		QueueSize:       100,
		ShutdownTimeout: 10 * time.Second,
		MaxRetries:      3,
		RetryDelay:      500 * time.Millisecond,
		EnableRecovery:  true,
	}
}

// withDefaults fills zero-valued sizing fields
func (c WorkerConfig) withDefaults() WorkerConfig {
	defaults := DefaultWorkerConfig(c.WorkerName)
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaults.QueueSize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// BaseWorker carries the name, config, running flag and job counters
// shared by every worker. Counters are lock-free so Stats can be read from
// request handlers while jobs are running.
type BaseWorker struct {
	config WorkerConfig

	running   atomic.Bool
	startedAt atomic.Int64 // unix nanos of the last Start

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
	busyNanos atomic.Int64
	lastJobAt atomic.Int64 // unix nanos
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(config WorkerConfig) *BaseWorker {
	return &BaseWorker{config: config.withDefaults()}
}

// Name returns the worker's name
func (w *BaseWorker) Name() string { return w.config.WorkerName }

// Config returns the worker configuration
func (w *BaseWorker) Config() WorkerConfig { return w.config }

// IsRunning returns whether the worker is currently running
func (w *BaseWorker) IsRunning() bool { return w.running.Load() }

func (w *BaseWorker) setRunning(running bool) {
	if running {
		w.startedAt.Store(time.Now().UnixNano())
	}
	w.running.Store(running)
}

// Stats returns worker statistics
func (w *BaseWorker) Stats() WorkerStats {
	stats := WorkerStats{
		WorkerName:    w.config.WorkerName,
		JobsProcessed: w.processed.Load(),
		JobsSucceeded: w.succeeded.Load(),
		JobsFailed:    w.failed.Load(),
		JobsDropped:   w.dropped.Load(),
		IsRunning:     w.IsRunning(),
	}
	if stats.JobsProcessed > 0 {
		stats.AverageProcessTime = time.Duration(w.busyNanos.Load() / stats.JobsProcessed)
	}
	if last := w.lastJobAt.Load(); last != 0 {
		stats.LastJobTime = time.Unix(0, last)
	}
	if started := w.startedAt.Load(); started != 0 && stats.IsRunning {
		stats.Uptime = time.Since(time.Unix(0, started))
	}
	return stats
}

func (w *BaseWorker) finishJob(startTime time.Time, outcome *atomic.Int64) {
	now := time.Now()
	outcome.Add(1)
	w.busyNanos.Add(int64(now.Sub(startTime)))
	w.lastJobAt.Store(now.UnixNano())
	w.processed.Add(1)
}

func (w *BaseWorker) recordJobSuccess(startTime time.Time) { w.finishJob(startTime, &w.succeeded) }

func (w *BaseWorker) recordJobFailure(startTime time.Time) { w.finishJob(startTime, &w.failed) }

// recordJobDropped counts a job that never reached the queue
func (w *BaseWorker) recordJobDropped() { w.dropped.Add(1) }

// JobProcessor defines a function that processes a job
type JobProcessor[T any] func(ctx context.Context, job T) error

// RecoverableJobProcessor wraps a job processor with panic recovery
func RecoverableJobProcessor[T any](processor JobProcessor[T]) JobProcessor[T] {
	return func(ctx context.Context, job T) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &WorkerPanicError{
					Panic: r,
				}
			}
		}()
		return processor(ctx, job)
	}
}

// WorkerError represents a worker-specific error
type WorkerError struct {
	WorkerName string
	Operation  string
	Err        error
}

func (e *WorkerError) Error() string {
	prefix := e.WorkerName + ":" + e.Operation
	if e.Err != nil {
		return prefix + ": " + e.Err.Error()
	}
	return prefix + ": unknown error"
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// NewWorkerError creates a new worker error
func NewWorkerError(workerName, operation string, err error) *WorkerError {
	return &WorkerError{
		WorkerName: workerName,
		Operation:  operation,
		Err:        err,
	}
}

// WorkerPanicError represents a panic that occurred during job processing
type WorkerPanicError struct {
	Panic interface{}
}

func (e *WorkerPanicError) Error() string {
	return "worker panic: " + formatPanic(e.Panic)
}

func formatPanic(p interface{}) string {
	switch v := p.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
