// Package normalize provides canonical forms for user-supplied values.
//
// Handlers and stores normalize at the boundary so the rest of the app can
// compare values without re-trimming or re-casing them.
package normalize

import (
	"strings"
	"time"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// AuthMethod lowercases and trims an auth method name.
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DateKey validates and canonicalizes a calendar date key (YYYY-MM-DD).
// Returns the canonical key and true, or "" and false if the input does not
// parse as a calendar date.
func DateKey(s string) (string, bool) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}
