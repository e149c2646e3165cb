// Package textutil normalizes user-entered names.
package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title capitalizes the first letter of every word and lowercases the rest,
// collapsing surrounding whitespace.
func Title(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.BrazilianPortuguese).String(s)
}

// Code normalizes an item code for display and lookups.
func Code(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ContainsFold reports whether substr is within s, ignoring case. An empty
// substr always matches.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
