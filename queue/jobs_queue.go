package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RedisQueue keeps ready jobs in a list, in-flight jobs in a processing list,
// delayed jobs in a sorted set scored by run time and dead jobs in a failed list.
type RedisQueue struct {
	client     *redis.Client
	queueName  string
	processing string
	delayed    string
	failed     string
	logger     *zap.Logger
	now        func() time.Time
}

func NewRedisQueue(redisURL, queueName string, logger *zap.Logger) (*RedisQueue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisQueueWithClient(client, queueName, logger), nil
}

func NewRedisQueueWithClient(client *redis.Client, queueName string, logger *zap.Logger) *RedisQueue {
	return &RedisQueue{
		client:     client,
		queueName:  queueName,
		processing: queueName + ":processing",
		delayed:    queueName + ":delayed",
		failed:     queueName + ":failed",
		logger:     logger.Named("queue"),
		now:        time.Now,
	}
}

func (q *RedisQueue) newJob(jobType JobType, data map[string]interface{}, runAt time.Time) *Job {
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

func (q *RedisQueue) Enqueue(ctx context.Context, jobType JobType, data map[string]interface{}) (*Job, error) {
	job := q.newJob(jobType, data, q.now())

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
		return nil, fmt.Errorf("failed to push job to queue: %w", err)
	}

	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return job, nil
}

// EnqueueDelayed adds a job that becomes ready after delay.
func (q *RedisQueue) EnqueueDelayed(ctx context.Context, jobType JobType, data map[string]interface{}, delay time.Duration) (*Job, error) {
	executeAt := q.now().Add(delay)
	job := q.newJob(jobType, data, executeAt)

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.client.ZAdd(ctx, q.delayed, &redis.Z{
		Score:  float64(executeAt.UnixMilli()),
		Member: jobJSON,
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to push delayed job to queue: %w", err)
	}

	q.logger.Debug("enqueued delayed job",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Time("run_at", executeAt))
	return job, nil
}

// Dequeue blocks up to timeout for a ready job. It returns nil, nil when none arrived.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected BLPOP result format")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.processing, result[1]).Err(); err != nil {
		q.logger.Warn("failed to move job to processing list", zap.String("job_id", job.ID), zap.Error(err))
	}

	return &job, nil
}

func (q *RedisQueue) CompleteJob(ctx context.Context, job *Job) error {
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LRem(ctx, q.processing, 1, jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to remove job from processing queue: %w", err)
	}

	q.logger.Debug("completed job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return nil
}

// FailJob moves the job to the failed list. Simulated submissions are never retried.
func (q *RedisQueue) FailJob(ctx context.Context, job *Job, jobErr error) error {
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LRem(ctx, q.processing, 1, jobJSON).Err(); err != nil {
		q.logger.Warn("failed to remove job from processing list", zap.String("job_id", job.ID), zap.Error(err))
	}

	job.Data["last_error"] = jobErr.Error()
	job.Data["failed_at"] = q.now().Format(time.RFC3339)
	failedJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.failed, failedJSON).Err(); err != nil {
		return fmt.Errorf("failed to push job to failed queue: %w", err)
	}

	q.logger.Warn("job moved to failed queue", zap.String("job_id", job.ID), zap.Error(jobErr))
	return nil
}

// ProcessDelayedJobs moves every due delayed job to the ready list and
// reports how many were moved.
func (q *RedisQueue) ProcessDelayedJobs(ctx context.Context) (int, error) {
	now := q.now().UnixMilli()

	jobs, err := q.client.ZRangeByScore(ctx, q.delayed, &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(now, 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get delayed jobs: %w", err)
	}

	moved := 0
	for _, jobJSON := range jobs {
		// ZRem first so two pollers cannot both move the same job.
		removed, err := q.client.ZRem(ctx, q.delayed, jobJSON).Result()
		if err != nil {
			q.logger.Warn("failed to remove job from delayed set", zap.Error(err))
			continue
		}
		if removed == 0 {
			continue
		}

		if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
			q.logger.Warn("failed to move delayed job to main queue", zap.Error(err))
			continue
		}
		moved++
	}

	return moved, nil
}

// FailedJobs lists the jobs in the failed list.
func (q *RedisQueue) FailedJobs(ctx context.Context) ([]Job, error) {
	raw, err := q.client.LRange(ctx, q.failed, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list failed jobs: %w", err)
	}

	jobs := make([]Job, 0, len(raw))
	for _, jobJSON := range raw {
		var job Job
		if err := json.Unmarshal([]byte(jobJSON), &job); err != nil {
			q.logger.Warn("failed to unmarshal job", zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
