package field

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases and collapses internal whitespace.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// Fold is Normalize with underscores treated as spaces, so that
// "estimated_value" and "Estimated Value" compare equal.
func Fold(s string) string {
	return Normalize(strings.ReplaceAll(s, "_", " "))
}

// absentMarkers are placeholder strings spreadsheet exports use for empty cells.
var absentMarkers = map[string]bool{
	"":     true,
	"nan":  true,
	"null": true,
	"none": true,
}

// IsAbsent reports whether a raw cell value carries no data.
func IsAbsent(raw string) bool {
	return absentMarkers[strings.ToLower(strings.TrimSpace(raw))]
}

// Clean returns the trimmed value, or "" when the value is absent.
func Clean(raw string) string {
	if IsAbsent(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}
