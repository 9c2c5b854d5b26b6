package domain

import "time"

const dateLayout = "2006-01-02"

// Date returns the calendar date y-m-d as a UTC midnight time.Time.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date in t's location and returns it as
// UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses an ISO-8601 calendar date ("2024-01-31").
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// MustDate is ParseDate for literals known to be valid. It panics otherwise.
func MustDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic("domain: invalid date literal " + s)
	}
	return t
}

// FormatDate renders a calendar date as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// PreviousDay returns the calendar date before t.
func PreviousDay(t time.Time) time.Time {
	return DateOf(t).AddDate(0, 0, -1)
}
