package normalize

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// Code trims whitespace, uppercases, and strips non-alphanumeric characters
// from a billing code. Returns "" if nothing survives.
func Code(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	s = strings.ToUpper(s)
	return nonAlphanumeric.ReplaceAllString(s, "")
}

// CodePtr is the nullable-string variant used by the fee-schedule reader.
func CodePtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := Code(*v)
	if s == "" {
		return nil
	}
	return &s
}
