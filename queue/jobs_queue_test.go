package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisQueueWithClient(client, "test_jobs", zaptest.NewLogger(t)), mr
}

func TestRedisQueue_EnqueueDequeueComplete(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)

	enqueued, err := q.Enqueue(ctx, JobTypeSimulatedPayment, map[string]interface{}{"submission_id": "sub-1"})
	require.NoError(t, err)

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, enqueued.ID, job.ID)
	assert.Equal(t, JobTypeSimulatedPayment, job.Type)
	id, ok := job.StringField("submission_id")
	assert.True(t, ok)
	assert.Equal(t, "sub-1", id)

	processing, err := mr.List("test_jobs:processing")
	require.NoError(t, err)
	assert.Len(t, processing, 1)

	require.NoError(t, q.CompleteJob(ctx, job))
	assert.False(t, mr.Exists("test_jobs:processing"))
}

func TestRedisQueue_DelayedJobs(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)

	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }

	delayed, err := q.EnqueueDelayed(ctx, JobTypeSimulatedPayment, map[string]interface{}{"submission_id": "sub-1"}, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Second), delayed.RunAt)

	members, err := mr.ZMembers("test_jobs:delayed")
	require.NoError(t, err)
	assert.Len(t, members, 1)

	moved, err := q.ProcessDelayedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	now = now.Add(2 * time.Second)
	moved, err = q.ProcessDelayedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.False(t, mr.Exists("test_jobs:delayed"))

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, delayed.ID, job.ID)

	moved, err = q.ProcessDelayedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved, "a promoted job is not moved twice")
}

func TestRedisQueue_FailJob(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)

	_, err := q.Enqueue(ctx, JobTypeSimulatedPayment, map[string]interface{}{"submission_id": "sub-1"})
	require.NoError(t, err)
	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, q.FailJob(ctx, job, errors.New("boom")))
	assert.False(t, mr.Exists("test_jobs:processing"))

	failed, err := q.FailedJobs(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, job.ID, failed[0].ID)
	assert.Equal(t, "boom", failed[0].Data["last_error"])
}

func TestRedisQueue_Ping(t *testing.T) {
	q, mr := newTestRedisQueue(t)
	assert.NoError(t, q.Ping(context.Background()))

	mr.Close()
	assert.Error(t, q.Ping(context.Background()))
}
