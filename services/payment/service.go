package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"checkout-form-api/metrics"
	"checkout-form-api/models"
	"checkout-form-api/queue"
	"checkout-form-api/storage"
)

const (
	SubmitLabel     = "Get Plan"
	ProcessingLabel = "Processing..."
	SuccessMessage  = "Payment processed successfully! Welcome to the premium plan."

	// lockGrace is added to the submission delay when locking the form so a
	// crashed worker does not hold the form forever.
	lockGrace = time.Minute
)

var (
	ErrFormInvalid = errors.New("payment form is not valid")
	ErrFormLocked  = errors.New("payment form is already being processed")
)

type Service struct {
	clock   Clock
	queue   queue.Queue
	store   storage.SubmissionStore
	delay   time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type Options struct {
	Clock           Clock
	Queue           queue.Queue
	Store           storage.SubmissionStore
	SubmissionDelay time.Duration
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

func NewPaymentService(opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		clock:   opts.Clock,
		queue:   opts.Queue,
		store:   opts.Store,
		delay:   opts.SubmissionDelay,
		logger:  opts.Logger.Named("payment"),
		metrics: opts.Metrics,
	}
}

// ApplyInput returns state with field set to the normalized form of raw.
func (s *Service) ApplyInput(state models.PaymentFormState, field models.FormField, raw string) models.PaymentFormState {
	switch field {
	case models.FieldCardNumber:
		state.CardNumber = FormatCardNumber(raw)
	case models.FieldExpiry:
		state.Expiry = FormatExpiry(raw)
	case models.FieldSecurityCode:
		state.SecurityCode = SanitizeSecurityCode(raw)
	case models.FieldCardName:
		state.CardName = raw
	}
	return state
}

func (s *Service) validateField(field models.FormField, value string) bool {
	switch field {
	case models.FieldCardNumber:
		return ValidateCardNumber(value)
	case models.FieldCardName:
		return ValidateCardName(value)
	case models.FieldSecurityCode:
		return ValidateSecurityCode(value)
	case models.FieldExpiry:
		return ValidateExpiry(value, s.clock.Now())
	default:
		return false
	}
}

// ValidateForm re-evaluates every field and the terms flag. The submit
// control is enabled exactly when the form is valid.
func (s *Service) ValidateForm(state models.PaymentFormState) models.FormValidation {
	fields := map[models.FormField]bool{
		models.FieldCardNumber:   s.validateField(models.FieldCardNumber, state.CardNumber),
		models.FieldCardName:     s.validateField(models.FieldCardName, state.CardName),
		models.FieldSecurityCode: s.validateField(models.FieldSecurityCode, state.SecurityCode),
		models.FieldExpiry:       s.validateField(models.FieldExpiry, state.Expiry),
		models.FieldTerms:        state.TermsAccepted,
	}

	valid := true
	var failed []string
	for _, field := range models.AllFields {
		if !fields[field] {
			valid = false
			failed = append(failed, string(field))
		}
	}
	s.metrics.RecordValidation(valid, failed)

	return models.FormValidation{
		Valid:         valid,
		SubmitEnabled: valid,
		SubmitLabel:   SubmitLabel,
		Fields:        fields,
	}
}

// FieldFeedback is the blur result for one input: neutral when blank,
// otherwise valid or invalid.
func (s *Service) FieldFeedback(field models.FormField, value string) models.FieldFeedback {
	if !models.IsTextField(field) {
		return models.FieldFeedback{Field: field, State: models.FeedbackNeutral}
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return models.FieldFeedback{Field: field, State: models.FeedbackNeutral}
	}
	if s.validateField(field, value) {
		return models.FieldFeedback{Field: field, State: models.FeedbackValid}
	}
	return models.FieldFeedback{Field: field, State: models.FeedbackInvalid}
}

func (s *Service) FocusFeedback(field models.FormField) models.FieldFeedback {
	return models.FieldFeedback{Field: field, State: models.FeedbackFocused}
}

// Submit validates the form, locks it and schedules the simulated
// processing. The returned validation has the submit control disabled.
func (s *Service) Submit(ctx context.Context, formID string, state models.PaymentFormState) (*models.Submission, models.FormValidation, error) {
	validation := s.ValidateForm(state)
	if !validation.Valid {
		return nil, validation, ErrFormInvalid
	}

	acquired, err := s.store.LockForm(ctx, formID, s.delay+lockGrace)
	if err != nil {
		return nil, validation, fmt.Errorf("failed to lock form: %w", err)
	}
	if !acquired {
		validation.SubmitEnabled = false
		validation.SubmitLabel = ProcessingLabel
		return nil, validation, ErrFormLocked
	}

	sub := &models.Submission{
		ID:        uuid.New().String(),
		FormID:    formID,
		Status:    models.PaymentStatusProcessing,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.Create(ctx, sub); err != nil {
		s.unlock(ctx, formID)
		return nil, validation, fmt.Errorf("failed to store submission: %w", err)
	}

	_, err = s.queue.EnqueueDelayed(ctx, queue.JobTypeSimulatedPayment, map[string]interface{}{
		"submission_id": sub.ID,
		"form_id":       formID,
	}, s.delay)
	if err != nil {
		s.unlock(ctx, formID)
		if _, completeErr := s.store.Complete(ctx, sub.ID, models.PaymentStatusFailed, "scheduling failed", s.clock.Now()); completeErr != nil {
			s.logger.Warn("failed to mark submission failed", zap.String("submission_id", sub.ID), zap.Error(completeErr))
		}
		s.metrics.RecordSubmission(models.PaymentStatusFailed.String())
		return nil, validation, fmt.Errorf("failed to schedule submission: %w", err)
	}

	s.metrics.RecordSubmission(models.PaymentStatusProcessing.String())
	s.logger.Info("submission scheduled",
		zap.String("submission_id", sub.ID),
		zap.String("form_id", formID),
		zap.Duration("delay", s.delay))

	validation.SubmitEnabled = false
	validation.SubmitLabel = ProcessingLabel
	return sub, validation, nil
}

// CompleteSubmission marks a scheduled submission successful and frees its form.
func (s *Service) CompleteSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	sub, err := s.store.Complete(ctx, submissionID, models.PaymentStatusSuccess, SuccessMessage, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to complete submission %s: %w", submissionID, err)
	}
	s.unlock(ctx, sub.FormID)

	s.metrics.RecordSubmission(models.PaymentStatusSuccess.String())
	s.logger.Info("submission completed", zap.String("submission_id", sub.ID), zap.String("form_id", sub.FormID))
	return sub, nil
}

func (s *Service) GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	return s.store.Get(ctx, submissionID)
}

// IsProcessing reports whether a submission for formID is in flight.
func (s *Service) IsProcessing(ctx context.Context, formID string) (bool, error) {
	if formID == "" {
		return false, nil
	}
	return s.store.IsFormLocked(ctx, formID)
}

func (s *Service) unlock(ctx context.Context, formID string) {
	if err := s.store.UnlockForm(ctx, formID); err != nil {
		s.logger.Warn("failed to release form lock", zap.String("form_id", formID), zap.Error(err))
	}
}
