package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatCardNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"fewer than four digits", "411", "411"},
		{"exactly four digits", "4111", "4111"},
		{"partial block", "41111", "4111 1"},
		{"full number", "4111111111111111", "4111 1111 1111 1111"},
		{"visa sample", "4532015112830366", "4532 0151 1283 0366"},
		{"already grouped", "4111 1111 1111 1111", "4111 1111 1111 1111"},
		{"separators stripped", "4111-1111-1111-1111", "4111 1111 1111 1111"},
		{"letters stripped", "41a11b1111", "4111 1111"},
		{"truncated to sixteen", "12345678901234567890", "1234 5678 9012 3456"},
		{"no digits", "abcd", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCardNumber(tt.raw))
		})
	}
}

func TestFormatCardNumber_Idempotent(t *testing.T) {
	inputs := []string{"4", "41111", "4111111111111111", "12345678901234567890", "4111 11"}
	for _, in := range inputs {
		once := FormatCardNumber(in)
		assert.Equal(t, once, FormatCardNumber(once), in)
	}
}

func TestFormatExpiry(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"one digit", "1", "1"},
		{"two digits get a slash", "12", "12/"},
		{"three digits", "122", "12/2"},
		{"full", "1225", "12/25"},
		{"already formatted", "12/25", "12/25"},
		{"extra digits dropped", "122599", "12/25"},
		{"month not range checked", "1399", "13/99"},
		{"letters only", "ab", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatExpiry(tt.raw))
		})
	}
}

func TestSanitizeSecurityCode(t *testing.T) {
	assert.Equal(t, "123", SanitizeSecurityCode("1a2b3"))
	assert.Equal(t, "", SanitizeSecurityCode("abc"))
	assert.Equal(t, "1234", SanitizeSecurityCode(" 12 34 "))
}

func TestValidateCardNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{"visa test number", "4111111111111111", true},
		{"visa sample", "4532015112830366", true},
		{"visa sample off by one", "4532015112830367", false},
		{"grouped visa", "4111 1111 1111 1111", true},
		{"amex", "378282246310005", true},
		{"visa 13 digits", "4222222222222", true},
		{"19 digits", "4000000000000000006", true},
		{"luhn valid but 20 digits", "40000000000000000002", false},
		{"bad checksum", "4111111111111112", false},
		{"too short", "411111111111", false},
		{"too long", "41111111111111111111", false},
		{"non digit", "4111-1111-1111-1111", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCardNumber(tt.number))
		})
	}
}

func TestValidateLuhn_TwentyDigitsPassChecksum(t *testing.T) {
	assert.True(t, validateLuhn("40000000000000000002"))
}

func TestValidateExpiry(t *testing.T) {
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry string
		want   bool
	}{
		{"current month", "10/26", true},
		{"later this year", "12/26", true},
		{"next year", "01/27", true},
		{"last month", "09/26", false},
		{"last year", "12/25", false},
		{"month zero", "00/27", false},
		{"month thirteen", "13/27", false},
		{"month thirteen last year", "13/25", false},
		{"missing slash", "1227", false},
		{"wrong separator", "12-27", false},
		{"single digit month", "1/27", false},
		{"letters", "ab/cd", false},
		{"partial", "12/", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateExpiry(tt.expiry, now))
		})
	}
}

func TestValidateSecurityCode(t *testing.T) {
	assert.True(t, ValidateSecurityCode("123"))
	assert.True(t, ValidateSecurityCode("1234"))
	assert.False(t, ValidateSecurityCode("12"))
	assert.False(t, ValidateSecurityCode("12345"))
	assert.False(t, ValidateSecurityCode("12a"))
	assert.False(t, ValidateSecurityCode(""))
}

func TestValidateCardName(t *testing.T) {
	assert.True(t, ValidateCardName("Al"))
	assert.True(t, ValidateCardName("  Jane Doe  "))
	assert.True(t, ValidateCardName("Zoë"))
	assert.False(t, ValidateCardName(" A "))
	assert.False(t, ValidateCardName("Z"))
	assert.False(t, ValidateCardName(""))
}
