package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"checkout-form-api/models"
	"checkout-form-api/queue"
)

// SubmissionCompleter finishes a simulated payment submission.
type SubmissionCompleter interface {
	CompleteSubmission(ctx context.Context, submissionID string) (*models.Submission, error)
}

// Worker moves due delayed jobs onto the ready list and runs them.
type Worker struct {
	queue        queue.Queue
	completer    SubmissionCompleter
	logger       *zap.Logger
	pollInterval time.Duration
	dequeueWait  time.Duration

	mu        sync.Mutex
	shutdown  chan struct{}
	wg        sync.WaitGroup
	isRunning bool
}

// NewWorker creates a new worker
func NewWorker(q queue.Queue, completer SubmissionCompleter, pollInterval time.Duration, logger *zap.Logger) *Worker {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	return &Worker{
		queue:        q,
		completer:    completer,
		logger:       logger.Named("worker"),
		pollInterval: pollInterval,
		dequeueWait:  time.Second,
	}
}

// Start begins processing jobs with concurrency goroutines plus one
// goroutine promoting delayed jobs.
func (w *Worker) Start(concurrency int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return
	}
	if concurrency < 1 {
		concurrency = 1
	}

	w.shutdown = make(chan struct{})
	w.isRunning = true

	w.wg.Add(1)
	go w.promoteDelayed()

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(i)
	}

	w.logger.Info("worker started", zap.Int("concurrency", concurrency))
}

// Stop signals the goroutines to exit and waits for them.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	close(w.shutdown)
	w.isRunning = false
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("worker stopped")
}

func (w *Worker) promoteDelayed() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			moved, err := w.queue.ProcessDelayedJobs(ctx)
			cancel()
			if err != nil {
				w.logger.Warn("failed to promote delayed jobs", zap.Error(err))
				continue
			}
			if moved > 0 {
				w.logger.Debug("promoted delayed jobs", zap.Int("count", moved))
			}
		}
	}
}

// processJobs continuously processes jobs from the queue
func (w *Worker) processJobs(workerID int) {
	defer w.wg.Done()
	log := w.logger.With(zap.Int("worker_id", workerID))

	for {
		select {
		case <-w.shutdown:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.dequeueWait+5*time.Second)
		job, err := w.queue.Dequeue(ctx, w.dequeueWait)
		cancel()

		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) {
				return
			}
			log.Warn("error dequeuing job", zap.Error(err))
			w.sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		log.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))

		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		if jobErr := w.processJob(ctx, job); jobErr != nil {
			log.Error("error processing job", zap.String("job_id", job.ID), zap.Error(jobErr))
			if failErr := w.queue.FailJob(ctx, job, jobErr); failErr != nil {
				log.Error("error marking job as failed", zap.String("job_id", job.ID), zap.Error(failErr))
			}
		} else if completeErr := w.queue.CompleteJob(ctx, job); completeErr != nil {
			log.Warn("error marking job as complete", zap.String("job_id", job.ID), zap.Error(completeErr))
		}
		cancel()
	}
}

func (w *Worker) processJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeSimulatedPayment:
		return w.processSimulatedPayment(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) processSimulatedPayment(ctx context.Context, job *queue.Job) error {
	submissionID, ok := job.StringField("submission_id")
	if !ok {
		return fmt.Errorf("invalid submission_id in job data")
	}
	_, err := w.completer.CompleteSubmission(ctx, submissionID)
	return err
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.shutdown:
	case <-time.After(d):
	}
}
