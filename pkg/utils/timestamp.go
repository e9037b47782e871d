package utils

import "time"

const (
	// TimestampLayout is the persisted timestamp form, always rendered at UTC+9.
	TimestampLayout = "2006-01-02 15:04:05+09"
	// DateLayout is the calendar date form used by due_on.
	DateLayout = "2006-01-02"
)

// JST has no DST, so a fixed zone is exact.
var JST = time.FixedZone("JST", 9*60*60)

// FormatTimestamp renders t in JST using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.In(JST).Format(TimestampLayout)
}

// NowTimestamp is FormatTimestamp(time.Now()).
func NowTimestamp() string {
	return FormatTimestamp(time.Now())
}

// IsCalendarDate reports whether s is a valid YYYY-MM-DD date.
func IsCalendarDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
