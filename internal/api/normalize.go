package api

import (
	"log/slog"
	"time"

	"golang.org/x/text/unicode/norm"
)

// naiveLayout matches server timestamps emitted without a zone designator.
// The service stores naive UTC datetimes and serializes them bare, e.g.
// "2024-06-20T14:45:00.123456". RFC3339 is tried first for forward
// compatibility.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Timestamp validation bounds; timestamps outside this range are replaced
// with the current time and a warning is logged.
const (
	minValidYear = 1970
	maxValidYear = 2100
)

// parseTimestamp parses a server timestamp and validates the year range.
// Invalid or out-of-range timestamps are replaced with time.Now().UTC() and
// logged. Optional fields pass "" and get a zero time back.
func parseTimestamp(raw, field, recordID string, logger *slog.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.ParseInLocation(naiveLayout, raw, time.UTC)
	}

	if err != nil {
		logger.Warn("invalid timestamp, using current time",
			slog.String("field", field),
			slog.String("record_id", recordID),
			slog.String("raw", raw),
			slog.String("error", err.Error()),
		)

		return time.Now().UTC()
	}

	if t.Year() < minValidYear || t.Year() > maxValidYear {
		logger.Warn("timestamp out of valid range, using current time",
			slog.String("field", field),
			slog.String("record_id", recordID),
			slog.String("raw", raw),
		)

		return time.Now().UTC()
	}

	return t
}

// normalizeName applies Unicode NFC normalization to a document name.
// Names uploaded from macOS clients arrive NFD-decomposed; normalizing on
// ingest keeps equality checks and display consistent across platforms.
func normalizeName(name string) string {
	return norm.NFC.String(name)
}

// formatTimestamp serializes an expiry for a request body using the bare
// layout the server parses. Zero times serialize to "" and the field is
// omitted by the caller.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(naiveLayout)
}
