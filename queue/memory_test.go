package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMemoryQueue_EnqueueDequeue(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(zaptest.NewLogger(t))

	first, err := q.Enqueue(ctx, JobTypeSimulatedPayment, map[string]interface{}{"submission_id": "a"})
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, JobTypeSimulatedPayment, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, first.ID, job.ID)
	id, ok := job.StringField("submission_id")
	assert.True(t, ok)
	assert.Equal(t, "a", id)

	job, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, second.ID, job.ID)
	_, ok = job.StringField("submission_id")
	assert.False(t, ok)

	require.NoError(t, q.CompleteJob(ctx, job))
}

func TestMemoryQueue_DequeueTimeout(t *testing.T) {
	q := NewMemoryQueue(zaptest.NewLogger(t))

	job, err := q.Dequeue(context.Background(), 20*time.Millisecond)
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestMemoryQueue_DequeueWakesOnEnqueue(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(zaptest.NewLogger(t))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = q.Enqueue(ctx, JobTypeSimulatedPayment, nil)
	}()

	job, err := q.Dequeue(ctx, 2*time.Second)
	require.NoError(t, err)
	assert.NotNil(t, job)
}

func TestMemoryQueue_DelayedJobs(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(zaptest.NewLogger(t))

	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }

	late, err := q.EnqueueDelayed(ctx, JobTypeSimulatedPayment, nil, 5*time.Second)
	require.NoError(t, err)
	early, err := q.EnqueueDelayed(ctx, JobTypeSimulatedPayment, nil, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Second), early.RunAt)

	moved, err := q.ProcessDelayedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	now = now.Add(2 * time.Second)
	moved, err = q.ProcessDelayedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, early.ID, job.ID)

	now = now.Add(3 * time.Second)
	moved, err = q.ProcessDelayedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	job, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, late.ID, job.ID)
}

func TestMemoryQueue_FailJob(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(zaptest.NewLogger(t))

	_, err := q.Enqueue(ctx, JobTypeSimulatedPayment, nil)
	require.NoError(t, err)
	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, q.FailJob(ctx, job, errors.New("boom")))

	failed := q.FailedJobs()
	require.Len(t, failed, 1)
	assert.Equal(t, job.ID, failed[0].ID)
	assert.Equal(t, "boom", failed[0].Data["last_error"])
}

func TestMemoryQueue_Close(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(zaptest.NewLogger(t))
	require.NoError(t, q.Ping(ctx))
	require.NoError(t, q.Close())

	_, err := q.Enqueue(ctx, JobTypeSimulatedPayment, nil)
	assert.ErrorIs(t, err, ErrQueueClosed)
	_, err = q.EnqueueDelayed(ctx, JobTypeSimulatedPayment, nil, time.Second)
	assert.ErrorIs(t, err, ErrQueueClosed)
	_, err = q.Dequeue(ctx, time.Second)
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, q.Ping(ctx), ErrQueueClosed)
}
