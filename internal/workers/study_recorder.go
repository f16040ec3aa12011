package workers

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"ortho-assist/internal/models"
)

var (
	// ErrAlreadyRunning is returned by Start on a running worker
	ErrAlreadyRunning = errors.New("worker already running")
	// ErrShutdownTimeout is returned by Stop when queued jobs did not drain
	ErrShutdownTimeout = errors.New("timed out draining queue")
)

// AnalysisRecorder persists a finished analysis as a study
type AnalysisRecorder interface {
	RecordAnalysis(ctx context.Context, req *models.AnalyzeRequest, result *models.AnalyzeResult) (*models.Study, error)
}

type recordJob struct {
	req    *models.AnalyzeRequest
	result *models.AnalyzeResult
}

// StudyRecorder writes finished analyses to the study history in the
// background so a slow or failing store never delays the upload response.
// Jobs are retried up to MaxRetries times; a full queue drops the job.
type StudyRecorder struct {
	*BaseWorker
	history AnalysisRecorder
	logger  *log.Logger
	process JobProcessor[recordJob]

	mu     sync.Mutex // guards queue against send after close
	queue  chan recordJob
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewStudyRecorder creates a recorder over history
func NewStudyRecorder(config WorkerConfig, history AnalysisRecorder, logger *log.Logger) *StudyRecorder {
	w := &StudyRecorder{
		BaseWorker: NewBaseWorker(config),
		history:    history,
		logger:     logger,
	}
	w.process = w.record
	if w.config.EnableRecovery {
		w.process = RecoverableJobProcessor(w.process)
	}
	return w
}

// Start launches the processing goroutines. Jobs run under a context
// derived from ctx that is cancelled if Stop gives up waiting.
func (w *StudyRecorder) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.IsRunning() {
		return NewWorkerError(w.Name(), "start", ErrAlreadyRunning)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	w.queue = make(chan recordJob, w.config.QueueSize)
	w.setRunning(true)

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.run(runCtx, w.queue)
	}

	w.logger.Printf("Started %s (concurrency: %d, queue: %d)", w.Name(), w.config.Concurrency, w.config.QueueSize)
	return nil
}

// Stop closes the queue and waits for queued jobs to finish, bounded by
// ctx and ShutdownTimeout
func (w *StudyRecorder) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.IsRunning() {
		w.mu.Unlock()
		return nil
	}
	w.setRunning(false)
	close(w.queue)
	cancel := w.cancel
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(w.config.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		cancel()
		w.logger.Printf("Stopped %s", w.Name())
		return nil
	case <-ctx.Done():
	case <-timer.C:
	}

	cancel()
	<-done
	return NewWorkerError(w.Name(), "stop", ErrShutdownTimeout)
}

// Record queues an analysis for recording. It never blocks; false means the
// job was dropped because the worker is stopped or the queue is full.
func (w *StudyRecorder) Record(req *models.AnalyzeRequest, result *models.AnalyzeResult) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.IsRunning() {
		w.recordJobDropped()
		return false
	}

	select {
	case w.queue <- recordJob{req: req, result: result}:
		return true
	default:
		w.recordJobDropped()
		w.logger.Printf("%s queue full, dropping study for user %s", w.Name(), req.UserID)
		return false
	}
}

func (w *StudyRecorder) run(ctx context.Context, queue <-chan recordJob) {
	defer w.wg.Done()

	for job := range queue {
		start := time.Now()
		if err := w.processWithRetry(ctx, job); err != nil {
			w.recordJobFailure(start)
			w.logger.Printf("Failed to record study for user %s: %v", job.req.UserID, err)
			continue
		}
		w.recordJobSuccess(start)
	}
}

func (w *StudyRecorder) processWithRetry(ctx context.Context, job recordJob) error {
	var err error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.config.RetryDelay):
			}
		}

		if err = w.process(ctx, job); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (w *StudyRecorder) record(ctx context.Context, job recordJob) error {
	study, err := w.history.RecordAnalysis(ctx, job.req, job.result)
	if err != nil {
		return err
	}
	w.logger.Printf("Recorded study %s (%s, %s)", study.ID, study.BodyPart, study.Status)
	return nil
}
