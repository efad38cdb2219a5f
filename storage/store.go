package storage

import (
	"context"
	"errors"
	"time"

	"checkout-form-api/models"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSubmissionExists   = errors.New("submission already exists")
	ErrInvalidStatus      = errors.New("invalid submission status")
)

// SubmissionStore tracks simulated submissions and the per-form lock that
// keeps a form from being submitted twice while one is in flight.
type SubmissionStore interface {
	Create(ctx context.Context, sub *models.Submission) error
	Get(ctx context.Context, id string) (*models.Submission, error)
	Complete(ctx context.Context, id string, status models.PaymentStatus, message string, at time.Time) (*models.Submission, error)
	LockForm(ctx context.Context, formID string, ttl time.Duration) (bool, error)
	UnlockForm(ctx context.Context, formID string) error
	IsFormLocked(ctx context.Context, formID string) (bool, error)
	Ping(ctx context.Context) error
}
