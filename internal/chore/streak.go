package chore

import "time"

// Streak is a member's run of consecutive days with at least one completed task.
type Streak struct {
	Current  int
	Longest  int
	LastDate string // DateLayout; empty when no completion was ever recorded
}

// Advance returns the streak after a completion on today.
//
//   - no previous date: 1
//   - same day: unchanged
//   - previous day: +1
//   - older, or a future date from clock skew: back to 1
//
// Longest never decreases.
func Advance(s Streak, today time.Time) Streak {
	key := DayKey(today)
	next := s

	switch {
	case s.LastDate == "":
		next.Current = 1
	case s.LastDate == key:
		return s
	default:
		gap, err := DaysSinceKey(s.LastDate, today)
		if err == nil && gap == 1 {
			next.Current = s.Current + 1
		} else {
			next.Current = 1
		}
	}

	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	next.LastDate = key
	return next
}
