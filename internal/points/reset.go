package points

import (
	"context"
	"time"

	"github.com/dukerupert/choreboard/internal/chore"
	"github.com/dukerupert/choreboard/internal/store"
)

// ResetScheduler returns recurring tasks to incomplete once their
// recurrence comes around again. It never touches points or streaks.
type ResetScheduler struct {
	d *deps
}

// RunDailyReset resets every task selected by the recurrence table for
// today and returns how many were reset. Re-running on the same day is a
// no-op because reset tasks no longer match.
func (s *ResetScheduler) RunDailyReset(ctx context.Context, today time.Time, isWeekday, isWeekend bool) (int, error) {
	candidates, err := s.d.store.Tasks.ListCompletedRecurring(ctx)
	if err != nil {
		return 0, err
	}

	byMember := make(map[int64][]int64)
	var order []int64
	for _, t := range candidates {
		if !chore.ShouldReset(t, today, isWeekday, isWeekend) {
			continue
		}
		if _, ok := byMember[t.MemberID]; !ok {
			order = append(order, t.MemberID)
		}
		byMember[t.MemberID] = append(byMember[t.MemberID], t.ID)
	}

	count := 0
	for _, memberID := range order {
		n, err := s.resetMember(ctx, memberID, byMember[memberID], today, isWeekday, isWeekend)
		count += n
		if err != nil {
			return count, err
		}
	}

	s.d.logger.Info("daily reset complete", "day", chore.DayKey(today), "candidates", len(candidates), "reset", count)
	return count, nil
}

// RunForDate runs the reset for the household calendar day containing now.
func (s *ResetScheduler) RunForDate(ctx context.Context, now time.Time) (int, error) {
	today := now.In(s.d.cfg.Location)
	return s.RunDailyReset(ctx, today, chore.IsWeekday(today), chore.IsWeekend(today))
}

// RunNow resets for the current household day.
func (s *ResetScheduler) RunNow(ctx context.Context) (int, error) {
	return s.RunForDate(ctx, s.d.now())
}

// resetMember re-checks each task under the member's lock, since a toggle
// may have changed it after the candidate list was read.
func (s *ResetScheduler) resetMember(ctx context.Context, memberID int64, taskIDs []int64, today time.Time, isWeekday, isWeekend bool) (int, error) {
	unlock := s.d.locks.Lock(memberID)
	defer unlock()

	n := 0
	err := s.d.store.WithTx(ctx, func(r store.Repos) error {
		for _, id := range taskIDs {
			t, err := r.Tasks.GetByID(ctx, id)
			if err != nil {
				return err
			}
			// A task reassigned since the candidates were listed belongs to
			// another member's lock.
			if t == nil || t.MemberID != memberID || !chore.ShouldReset(*t, today, isWeekday, isWeekend) {
				continue
			}
			if err := r.Tasks.SetCompleted(ctx, id, false, time.Time{}); err != nil {
				return err
			}
			s.d.logger.Debug("task reset", "member_id", memberID, "task_id", id, "recurrence", string(t.Recurrence))
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

