package shared

import (
	"strconv"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

// ParseYear reads a four digit year, defaulting to fallback when empty.
func ParseYear(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || !ValidYear(year) {
		return 0, false
	}
	return year, true
}

// ValidYear bounds the ledger years accepted from clients.
func ValidYear(year int) bool {
	return year >= 1970 && year <= 9999
}
