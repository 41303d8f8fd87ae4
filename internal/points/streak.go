package points

import (
	"context"
	"time"

	"github.com/dukerupert/choreboard/internal/chore"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

type StreakTracker struct {
	d *deps
}

// RecordCompletion advances the member's streak for a completion on today's
// calendar day (in today's location) and persists it.
func (s *StreakTracker) RecordCompletion(ctx context.Context, memberID int64, today time.Time) (chore.Streak, error) {
	unlock := s.d.locks.Lock(memberID)
	defer unlock()

	var out chore.Streak
	err := s.d.store.WithTx(ctx, func(r store.Repos) error {
		m, err := r.Members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return memberNotFound(memberID)
		}
		out, err = s.record(ctx, r, m, today)
		return err
	})
	return out, err
}

func (s *StreakTracker) record(ctx context.Context, r store.Repos, m *model.Member, today time.Time) (chore.Streak, error) {
	prev := chore.Streak{Current: m.CurrentStreak, Longest: m.LongestStreak}
	if m.LastStreakDate != nil {
		prev.LastDate = *m.LastStreakDate
	}

	next := chore.Advance(prev, today)
	if next == prev {
		return next, nil
	}
	if err := r.Members.SetStreak(ctx, m.ID, next.Current, next.Longest, next.LastDate); err != nil {
		return chore.Streak{}, err
	}

	m.CurrentStreak, m.LongestStreak = next.Current, next.Longest
	m.LastStreakDate = &next.LastDate
	return next, nil
}
