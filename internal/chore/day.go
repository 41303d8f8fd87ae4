package chore

import "time"

// DateLayout is the calendar-day key format stored for streak dates.
const DateLayout = "2006-01-02"

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayKey returns the calendar date of t in t's location.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween counts calendar days from a to b, ignoring time of day. The
// dates are compared as civil dates so DST transitions never produce a
// 23- or 25-hour "day".
func DaysBetween(a, b time.Time) int {
	ca := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	cb := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(cb.Sub(ca).Hours() / 24)
}

// DaysSinceKey counts calendar days from a stored day key to today.
func DaysSinceKey(key string, today time.Time) (int, error) {
	d, err := time.Parse(DateLayout, key)
	if err != nil {
		return 0, err
	}
	return DaysBetween(d, today), nil
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func IsWeekday(t time.Time) bool {
	return !IsWeekend(t)
}
