package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordValidation(false, []string{"card_number"})
		m.RecordSubmission("processing")
		m.RecordSignup("created")
	})
}

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordValidation(true, nil)
	m.RecordValidation(false, []string{"card_number", "terms"})
	m.RecordSubmission("processing")
	m.RecordSignup("terms")

	families, err := reg.Gather()
	require.NoError(t, err)

	totals := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			totals[family.GetName()] += metric.GetCounter().GetValue()
		}
	}

	assert.Equal(t, 2.0, totals["checkout_form_validations_total"])
	assert.Equal(t, 2.0, totals["checkout_form_field_rejections_total"])
	assert.Equal(t, 1.0, totals["checkout_form_submissions_total"])
	assert.Equal(t, 1.0, totals["checkout_signup_attempts_total"])
}
