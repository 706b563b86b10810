package util

import "strings"

// SanitizePostgresText strips NUL bytes and invalid UTF-8, which Postgres
// text columns reject.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// CollapseWhitespace trims the string and folds internal whitespace runs
// into single spaces. Event headlines arrive from feed scrapers with
// arbitrary line breaks and padding.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
