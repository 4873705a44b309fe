// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code.
var DefaultRegion = "US"

var (
	e164Pattern   = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)
	bareIntlDigit = regexp.MustCompile(`^[1-9]\d{10,14}$`)
)

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
// WhatsApp sender ids arrive as international digits without the leading '+', those are
// treated as international numbers.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "whatsapp:")

	candidate := trimmed
	if bareIntlDigit.MatchString(candidate) {
		candidate = "+" + candidate
	}

	number, err := phonenumbers.Parse(candidate, DefaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// IsE164 reports whether s is already in E.164 form.
func IsE164(s string) bool {
	return e164Pattern.MatchString(s)
}

// Digits strips the leading '+' for providers that expect bare digits.
func Digits(e164 string) string {
	return strings.TrimPrefix(e164, "+")
}
