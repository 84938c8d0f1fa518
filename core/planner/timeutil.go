package planner

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	minutesPerDay = 24 * 60

	// DateFormat is the wire format for calendar dates.
	DateFormat = "2006-01-02"
)

// ToMinutes converts a "HH:mm" time-of-day string to minutes since midnight.
// Parsing is permissive: malformed components count as 0; out-of-range values
// are not rejected here (API inputs are validated with the `timestr` tag
// before they reach the core).
func ToMinutes(t string) int {
	parts := strings.SplitN(strings.TrimSpace(t), ":", 2)
	hours, _ := strconv.Atoi(parts[0])
	var minutes int
	if len(parts) > 1 {
		minutes, _ = strconv.Atoi(parts[1])
	}
	return hours*60 + minutes
}

// ToTimeString converts minutes since midnight back to a zero-padded "HH:mm"
// string. Negative values clamp to "00:00"; values past midnight wrap.
func ToTimeString(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	minutes %= minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddMinutes shifts a "HH:mm" time by delta minutes.
func AddMinutes(t string, delta int) string {
	return ToTimeString(ToMinutes(t) + delta)
}

// Overlap reports whether the half-open intervals [s1,e1) and [s2,e2) overlap.
func Overlap(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// ParseDate parses a "2006-01-02" calendar date into a UTC-midnight instant.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, strings.TrimSpace(s), time.UTC)
}

// FormatDate renders a date as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// DateOnly strips the time component, anchoring the date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// instantAt anchors a minute-of-day on a calendar date as an absolute instant.
func instantAt(date time.Time, minutes int) time.Time {
	return DateOnly(date).Add(time.Duration(minutes) * time.Minute)
}
