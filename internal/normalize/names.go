package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// Payer lowercases, collapses whitespace, and trims a payer display name.
// Returns "" for empty or all-whitespace input.
func Payer(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	return multiSpace.ReplaceAllString(s, " ")
}

// PayerPtr is the nullable-string variant used by the fee-schedule reader.
func PayerPtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := Payer(*v)
	if s == "" {
		return nil
	}
	return &s
}
