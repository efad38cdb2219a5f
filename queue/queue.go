package queue

import (
	"context"
	"errors"
	"time"
)

type JobType string

const (
	// JobTypeSimulatedPayment completes a payment form submission after the
	// configured delay.
	JobTypeSimulatedPayment JobType = "simulated_payment"
)

var ErrQueueClosed = errors.New("queue closed")

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt time.Time              `json:"created_at"`
	RunAt     time.Time              `json:"run_at"`
}

// StringField returns a string value from the job payload.
func (j *Job) StringField(key string) (string, bool) {
	v, ok := j.Data[key].(string)
	return v, ok && v != ""
}

// Queue is a FIFO of jobs with a delayed set in front of it. Delayed jobs
// become visible to Dequeue once ProcessDelayedJobs has moved them.
type Queue interface {
	Enqueue(ctx context.Context, jobType JobType, data map[string]interface{}) (*Job, error)
	EnqueueDelayed(ctx context.Context, jobType JobType, data map[string]interface{}, delay time.Duration) (*Job, error)
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
	CompleteJob(ctx context.Context, job *Job) error
	FailJob(ctx context.Context, job *Job, err error) error
	ProcessDelayedJobs(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}
