// Package compliance enforces do-not-contact rules: opt-out keyword
// detection, the DNC list, and the admin API over it.
package compliance

import "strings"

var optOutKeywords = map[string]struct{}{
	"stop":        {},
	"unsubscribe": {},
	"cancel":      {},
	"end":         {},
	"quit":        {},
	"stop all":    {},
}

// IsOptOutKeyword reports whether text, trimmed and case-folded, is exactly
// one of the carrier opt-out keywords. Substrings do not count.
func IsOptOutKeyword(text string) bool {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	_, ok := optOutKeywords[normalized]
	return ok
}
