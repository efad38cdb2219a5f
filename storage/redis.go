package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"checkout-form-api/models"
)

const (
	submissionKeyPrefix = "checkout_form:submission:"
	formLockKeyPrefix   = "checkout_form:lock:"
)

// RedisStore keeps submissions as JSON strings with a TTL and form locks as
// SETNX keys.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func submissionKey(id string) string {
	return submissionKeyPrefix + id
}

func formLockKey(formID string) string {
	return formLockKeyPrefix + formID
}

func (s *RedisStore) Create(ctx context.Context, sub *models.Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	created, err := s.client.SetNX(ctx, submissionKey(sub.ID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store submission: %w", err)
	}
	if !created {
		return ErrSubmissionExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Submission, error) {
	payload, err := s.client.Get(ctx, submissionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}

	var sub models.Submission
	if err := json.Unmarshal(payload, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission: %w", err)
	}
	return &sub, nil
}

func (s *RedisStore) Complete(ctx context.Context, id string, status models.PaymentStatus, message string, at time.Time) (*models.Submission, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sub.Status = status
	sub.Message = message
	sub.CompletedAt = &at

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}
	if err := s.client.Set(ctx, submissionKey(id), payload, redis.KeepTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to update submission: %w", err)
	}
	return sub, nil
}

func (s *RedisStore) LockForm(ctx context.Context, formID string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, formLockKey(formID), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("error acquiring form lock: %w", err)
	}
	return acquired, nil
}

func (s *RedisStore) UnlockForm(ctx context.Context, formID string) error {
	if err := s.client.Del(ctx, formLockKey(formID)).Err(); err != nil {
		return fmt.Errorf("error releasing form lock: %w", err)
	}
	return nil
}

func (s *RedisStore) IsFormLocked(ctx context.Context, formID string) (bool, error) {
	n, err := s.client.Exists(ctx, formLockKey(formID)).Result()
	if err != nil {
		return false, fmt.Errorf("error checking form lock: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
