package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the form API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FormValidations *prometheus.CounterVec
	FieldRejections *prometheus.CounterVec
	Submissions     *prometheus.CounterVec
	SignupAttempts  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FormValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_form_validations_total",
			Help: "Payment form re-evaluations by outcome",
		}, []string{"result"}),
		FieldRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_form_field_rejections_total",
			Help: "Payment form fields that failed validation",
		}, []string{"field"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_form_submissions_total",
			Help: "Simulated payment submissions by status",
		}, []string{"status"}),
		SignupAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_signup_attempts_total",
			Help: "Signup submissions by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) RecordValidation(valid bool, failed []string) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.FormValidations.WithLabelValues(result).Inc()
	for _, field := range failed {
		m.FieldRejections.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) RecordSubmission(status string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordSignup(outcome string) {
	if m == nil {
		return
	}
	m.SignupAttempts.WithLabelValues(outcome).Inc()
}
