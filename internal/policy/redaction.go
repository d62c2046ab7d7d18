// Package policy scrubs user-supplied text before it reaches the logs.
package policy

import (
	"regexp"
	"unicode/utf8"
)

type rule struct {
	pattern *regexp.Regexp
	mask    string
}

// Card numbers are matched before phones so a long digit run is not reported
// as a phone number.
var rules = []rule{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[REDACTED_CARD]"},
	{regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[REDACTED_PHONE]"},
}

// RedactPII masks email addresses, card numbers and phone numbers.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, r := range rules {
		next := r.pattern.ReplaceAllString(out, r.mask)
		changed = changed || next != out
		out = next
	}
	return out, changed
}

// Truncate shortens s to at most max runes, marking the cut with "…".
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}

// LogText is the form in which task text may be written to logs.
func LogText(s string) string {
	out, _ := RedactPII(s)
	return Truncate(out, 48)
}
