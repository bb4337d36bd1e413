// Package validation holds the name and tag helpers shared by the preference
// packages. Every name that enters a store, group or preference passes through
// ProcessName so map keys are always canonical.
package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidName is returned for empty or whitespace-only names
var ErrInvalidName = errors.New("invalid name")

// ProcessName trims surrounding whitespace and rejects names that end up empty.
// It is idempotent: processing an already processed name returns it unchanged.
func ProcessName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidName
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", ErrInvalidName
		}
	}

	return trimmed, nil
}

// ProcessDescription trims a description; empty stays empty
func ProcessDescription(description string) string {
	return strings.TrimSpace(description)
}

// SplitList splits a comma separated tag value, trimming entries and
// dropping empty ones.
func SplitList(tag string) []string {
	if strings.TrimSpace(tag) == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ToSnakeCase converts a CamelCase string to snake_case
func ToSnakeCase(s string) string {
	var result strings.Builder
	result.Grow(len(s) + 10)

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			// Split before an upper-case rune when it starts a new word:
			// "TabSize" -> tab_size, "HTTPPort" -> http_port
			prevIsLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if prevIsLower || (nextIsLower && unicode.IsUpper(runes[i-1])) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}

	return result.String()
}
