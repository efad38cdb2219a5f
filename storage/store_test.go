package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout-form-api/models"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl), mr
}

func testStores(t *testing.T) map[string]SubmissionStore {
	redisStore, _ := newTestRedisStore(t, time.Hour)
	return map[string]SubmissionStore{
		"memory": NewMemoryStore(time.Hour),
		"redis":  redisStore,
	}
}

func TestSubmissionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			sub := &models.Submission{
				ID:        "sub-1",
				FormID:    "form-1",
				Status:    models.PaymentStatusProcessing,
				CreatedAt: created,
			}
			require.NoError(t, store.Create(ctx, sub))
			assert.ErrorIs(t, store.Create(ctx, sub), ErrSubmissionExists)

			got, err := store.Get(ctx, "sub-1")
			require.NoError(t, err)
			assert.Equal(t, "form-1", got.FormID)
			assert.Equal(t, models.PaymentStatusProcessing, got.Status)
			assert.True(t, created.Equal(got.CreatedAt))
			assert.Nil(t, got.CompletedAt)

			completedAt := created.Add(2 * time.Second)
			done, err := store.Complete(ctx, "sub-1", models.PaymentStatusSuccess, "ok", completedAt)
			require.NoError(t, err)
			assert.Equal(t, models.PaymentStatusSuccess, done.Status)
			assert.Equal(t, "ok", done.Message)

			got, err = store.Get(ctx, "sub-1")
			require.NoError(t, err)
			assert.Equal(t, models.PaymentStatusSuccess, got.Status)
			require.NotNil(t, got.CompletedAt)
			assert.True(t, completedAt.Equal(*got.CompletedAt))

			_, err = store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrSubmissionNotFound)
			_, err = store.Complete(ctx, "missing", models.PaymentStatusSuccess, "", completedAt)
			assert.ErrorIs(t, err, ErrSubmissionNotFound)

			_, err = store.Complete(ctx, "sub-1", models.PaymentStatus(2), "", completedAt)
			assert.ErrorIs(t, err, ErrInvalidStatus)
			got, err = store.Get(ctx, "sub-1")
			require.NoError(t, err)
			assert.Equal(t, models.PaymentStatusSuccess, got.Status, "rejected status leaves the record alone")

			assert.NoError(t, store.Ping(ctx))
		})
	}
}

func TestSubmissionStore_FormLock(t *testing.T) {
	ctx := context.Background()

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			locked, err := store.IsFormLocked(ctx, "form-1")
			require.NoError(t, err)
			assert.False(t, locked)

			acquired, err := store.LockForm(ctx, "form-1", time.Minute)
			require.NoError(t, err)
			assert.True(t, acquired)

			acquired, err = store.LockForm(ctx, "form-1", time.Minute)
			require.NoError(t, err)
			assert.False(t, acquired)

			acquired, err = store.LockForm(ctx, "form-2", time.Minute)
			require.NoError(t, err)
			assert.True(t, acquired)

			locked, err = store.IsFormLocked(ctx, "form-1")
			require.NoError(t, err)
			assert.True(t, locked)

			require.NoError(t, store.UnlockForm(ctx, "form-1"))
			locked, err = store.IsFormLocked(ctx, "form-1")
			require.NoError(t, err)
			assert.False(t, locked)
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(ctx, &models.Submission{ID: "sub-1", FormID: "form-1"}))
	acquired, err := store.LockForm(ctx, "form-1", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	now = now.Add(time.Minute)
	locked, err := store.IsFormLocked(ctx, "form-1")
	require.NoError(t, err)
	assert.False(t, locked, "lock expires after its ttl")

	_, err = store.Get(ctx, "sub-1")
	assert.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = store.Get(ctx, "sub-1")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, time.Hour)

	require.NoError(t, store.Create(ctx, &models.Submission{ID: "sub-1", FormID: "form-1"}))
	acquired, err := store.LockForm(ctx, "form-1", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = store.Complete(ctx, "sub-1", models.PaymentStatusSuccess, "ok", time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(submissionKey("sub-1")), "completion keeps the ttl")

	mr.FastForward(time.Minute)
	locked, err := store.IsFormLocked(ctx, "form-1")
	require.NoError(t, err)
	assert.False(t, locked)

	mr.FastForward(time.Hour)
	_, err = store.Get(ctx, "sub-1")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}
