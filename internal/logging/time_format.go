package logging

import "time"

// consoleTimestampLayout is the wall-clock format used in human-readable
// console output; structured output formats timestamps separately (RFC3339
// UTC, via newStructuredHandler's ReplaceAttr).
const consoleTimestampLayout = "2006-01-02 15:04:05"

// renderLogTimestamp renders ts in the local zone for console output. A
// zero time (never set on a record) renders as empty rather than the Go
// zero-value date.
func renderLogTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(consoleTimestampLayout)
}
