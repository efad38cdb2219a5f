package signup

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"checkout-form-api/metrics"
	"checkout-form-api/models"
)

const SuccessMessage = "Account created successfully!"

// RuleError names the first signup rule the form broke. Its message is shown
// to the user as a blocking alert.
type RuleError struct {
	Rule    string
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

var (
	ErrTermsNotAccepted = &RuleError{Rule: "terms", Message: "Please accept the terms and conditions"}
	ErrPasswordMismatch = &RuleError{Rule: "password_match", Message: "Passwords do not match"}
	ErrMissingFields    = &RuleError{Rule: "required", Message: "Please fill in all required fields"}
)

type Service struct {
	validate *validator.Validate
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewService(logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("signup"),
		metrics:  m,
	}
}

// ToggleTerms flips the custom checkbox.
func (s *Service) ToggleTerms(accepted bool) bool {
	return !accepted
}

// Validate applies the signup rules in order: terms, password confirmation,
// required fields. It returns the first broken rule or nil.
func (s *Service) Validate(form models.SignupForm, termsAccepted bool) *RuleError {
	ruleErr := s.check(form, termsAccepted)
	if ruleErr != nil {
		s.metrics.RecordSignup(ruleErr.Rule)
		s.logger.Debug("signup rejected", zap.String("rule", ruleErr.Rule))
		return ruleErr
	}
	s.metrics.RecordSignup("created")
	return nil
}

func (s *Service) check(form models.SignupForm, termsAccepted bool) *RuleError {
	if !termsAccepted {
		return ErrTermsNotAccepted
	}

	// Passwords are compared untrimmed.
	if form.Password != form.ConfirmPassword {
		return ErrPasswordMismatch
	}

	trimmed := models.SignupForm{
		FullName:        strings.TrimSpace(form.FullName),
		Email:           strings.TrimSpace(form.Email),
		Password:        strings.TrimSpace(form.Password),
		ConfirmPassword: strings.TrimSpace(form.ConfirmPassword),
	}
	if err := s.validate.Struct(trimmed); err != nil {
		return ErrMissingFields
	}

	return nil
}
