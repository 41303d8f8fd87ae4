package chore

import (
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

// weeklyResetDays is how many calendar days a weekly task stays completed.
const weeklyResetDays = 7

// NeedsReset reports whether a task is a candidate for the daily reset:
// completed, recurring, and not completed earlier today.
func NeedsReset(t model.Task, today time.Time) bool {
	if !t.Completed || t.Recurrence == model.RecurrenceNone {
		return false
	}
	if t.CompletedAt == nil {
		return true
	}
	completed := t.CompletedAt.In(today.Location())
	return StartOfDay(completed).Before(StartOfDay(today))
}

// ShouldReset applies the recurrence table to a candidate task.
//
//	daily     always
//	weekdays  when today is a weekday
//	weekends  when today is a weekend day
//	weekly    completed_at missing, or 7+ calendar days old
func ShouldReset(t model.Task, today time.Time, isWeekday, isWeekend bool) bool {
	if !NeedsReset(t, today) {
		return false
	}

	switch t.Recurrence {
	case model.RecurrenceDaily:
		return true
	case model.RecurrenceWeekdays:
		return isWeekday
	case model.RecurrenceWeekends:
		return isWeekend
	case model.RecurrenceWeekly:
		if t.CompletedAt == nil {
			return true
		}
		return DaysBetween(t.CompletedAt.In(today.Location()), today) >= weeklyResetDays
	}
	return false
}
