package payment

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minCardDigits   = 13
	maxCardDigits   = 19
	minCardNameLen  = 2
	expiryLayoutLen = len("MM/YY")
)

// ValidateCardNumber checks the digit count and the Luhn checksum.
// Whitespace is ignored; any other non-digit rejects the number.
func ValidateCardNumber(number string) bool {
	num := strings.Join(strings.Fields(number), "")
	if len(num) < minCardDigits || len(num) > maxCardDigits {
		return false
	}
	return validateLuhn(num)
}

func validateLuhn(cardNumber string) bool {
	sum := 0
	double := false

	for i := len(cardNumber) - 1; i >= 0; i-- {
		digit := int(cardNumber[i] - '0')
		if digit < 0 || digit > 9 {
			return false
		}

		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return sum%10 == 0
}

// ValidateExpiry accepts an exact MM/YY value whose month is not before the
// month of now.
func ValidateExpiry(expiry string, now time.Time) bool {
	if len(expiry) != expiryLayoutLen || expiry[2] != '/' {
		return false
	}

	month, ok := parseTwoDigits(expiry[:2])
	if !ok {
		return false
	}
	yy, ok := parseTwoDigits(expiry[3:])
	if !ok {
		return false
	}
	year := 2000 + yy

	if month < 1 || month > 12 {
		return false
	}
	currentYear, currentMonth := now.Year(), int(now.Month())
	if year < currentYear || (year == currentYear && month < currentMonth) {
		return false
	}

	return true
}

func parseTwoDigits(s string) (int, bool) {
	if len(s) != 2 || !isDigit(s[0]) || !isDigit(s[1]) {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ValidateSecurityCode accepts three or four digits.
func ValidateSecurityCode(code string) bool {
	if len(code) < 3 || len(code) > 4 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !isDigit(code[i]) {
			return false
		}
	}
	return true
}

// ValidateCardName requires at least two characters after trimming.
func ValidateCardName(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= minCardNameLen
}
