package payment

import (
	"regexp"
	"strings"
)

var (
	nonDigits    = regexp.MustCompile(`[^0-9]`)
	cardDigitRun = regexp.MustCompile(`\d{4,16}`)
)

func digitsOnly(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}

// FormatCardNumber keeps the first run of up to 16 digits and groups it in
// blocks of four. Inputs with fewer than four digits come back as bare digits.
func FormatCardNumber(raw string) string {
	v := digitsOnly(raw)
	match := cardDigitRun.FindString(v)
	if match == "" {
		return v
	}

	parts := make([]string, 0, 4)
	for i := 0; i < len(match); i += 4 {
		parts = append(parts, match[i:min(i+4, len(match))])
	}
	return strings.Join(parts, " ")
}

// FormatExpiry renders digits as MM/YY once two digits are present.
// The month is not range checked here.
func FormatExpiry(raw string) string {
	v := digitsOnly(raw)
	if len(v) >= 2 {
		return v[:2] + "/" + v[2:min(4, len(v))]
	}
	return v
}

// SanitizeSecurityCode drops every non-digit character.
func SanitizeSecurityCode(raw string) string {
	return digitsOnly(raw)
}

