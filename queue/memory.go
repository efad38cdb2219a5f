package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryQueue is the in-process Queue used when no Redis is configured.
type MemoryQueue struct {
	mu         sync.Mutex
	ready      []*Job
	delayed    []*Job
	processing map[string]*Job
	failed     []*Job
	notify     chan struct{}
	closed     bool
	logger     *zap.Logger
	now        func() time.Time
}

func NewMemoryQueue(logger *zap.Logger) *MemoryQueue {
	return &MemoryQueue{
		processing: make(map[string]*Job),
		notify:     make(chan struct{}, 1),
		logger:     logger.Named("queue"),
		now:        time.Now,
	}
}

func (q *MemoryQueue) newJob(jobType JobType, data map[string]interface{}, runAt time.Time) *Job {
	if data == nil {
		data = map[string]interface{}{}
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Data:      data,
		CreatedAt: q.now(),
		RunAt:     runAt,
	}
}

func (q *MemoryQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, jobType JobType, data map[string]interface{}) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrQueueClosed
	}

	job := q.newJob(jobType, data, q.now())
	q.ready = append(q.ready, job)
	q.signal()

	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return job, nil
}

func (q *MemoryQueue) EnqueueDelayed(ctx context.Context, jobType JobType, data map[string]interface{}, delay time.Duration) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrQueueClosed
	}

	job := q.newJob(jobType, data, q.now().Add(delay))
	q.delayed = append(q.delayed, job)
	sort.SliceStable(q.delayed, func(i, j int) bool {
		return q.delayed[i].RunAt.Before(q.delayed[j].RunAt)
	})

	q.logger.Debug("enqueued delayed job",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Time("run_at", job.RunAt))
	return job, nil
}

// Dequeue waits up to timeout for a ready job. It returns nil, nil when none arrived.
func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}
		if len(q.ready) > 0 {
			job := q.ready[0]
			q.ready = q.ready[1:]
			q.processing[job.ID] = job
			if len(q.ready) > 0 {
				q.signal()
			}
			q.mu.Unlock()
			return job, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *MemoryQueue) CompleteJob(ctx context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, job.ID)
	return nil
}

func (q *MemoryQueue) FailJob(ctx context.Context, job *Job, err error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, job.ID)

	job.Data["last_error"] = err.Error()
	job.Data["failed_at"] = q.now().Format(time.RFC3339)
	q.failed = append(q.failed, job)

	q.logger.Warn("job moved to failed queue", zap.String("job_id", job.ID), zap.Error(err))
	return nil
}

func (q *MemoryQueue) ProcessDelayedJobs(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	due := 0
	for due < len(q.delayed) && !q.delayed[due].RunAt.After(now) {
		due++
	}
	if due == 0 {
		return 0, nil
	}

	q.ready = append(q.ready, q.delayed[:due]...)
	q.delayed = append([]*Job(nil), q.delayed[due:]...)
	q.signal()
	return due, nil
}

// FailedJobs returns a copy of the failed list.
func (q *MemoryQueue) FailedJobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]Job, 0, len(q.failed))
	for _, job := range q.failed {
		jobs = append(jobs, *job)
	}
	return jobs
}

func (q *MemoryQueue) Ping(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	return nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.signal()
	return nil
}
