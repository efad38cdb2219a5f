package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTextField(t *testing.T) {
	for _, field := range TextFields {
		assert.True(t, IsTextField(field), field)
	}
	assert.False(t, IsTextField(FieldTerms))
	assert.False(t, IsTextField("zip"))
}

func TestPaymentStatus(t *testing.T) {
	assert.Equal(t, "processing", PaymentStatusProcessing.String())
	assert.Equal(t, "success", PaymentStatusSuccess.String())
	assert.Equal(t, "failed", PaymentStatusFailed.String())
	assert.Equal(t, "unknown", PaymentStatus(2).String())

	assert.False(t, PaymentStatusProcessing.IsFinal())
	assert.True(t, PaymentStatusSuccess.IsFinal())
	assert.True(t, PaymentStatusFailed.IsFinal())
	assert.False(t, PaymentStatus(7).IsValid())
}
