package points

import (
	"context"
	"fmt"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

// ToggleResult is the outcome of flipping a task's completion flag.
type ToggleResult struct {
	Task      *model.Task `json:"task"`
	Completed bool        `json:"completed"`
	Balance   int         `json:"balance"`
}

type TaskEngine struct {
	d       *deps
	ledger  *Ledger
	streaks *StreakTracker
}

// Toggle flips the task's completion. Completing awards the task's points
// and advances the streak; unchecking deducts them again but leaves the
// streak as it was.
func (e *TaskEngine) Toggle(ctx context.Context, memberID, taskID int64) (*ToggleResult, error) {
	unlock := e.d.locks.Lock(memberID)
	defer unlock()

	now := e.d.now()
	var (
		res ToggleResult
		ev  Event
	)
	err := e.d.store.WithTx(ctx, func(r store.Repos) error {
		m, err := r.Members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return memberNotFound(memberID)
		}
		t, err := r.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if t == nil || t.MemberID != memberID {
			return fmt.Errorf("%w: task %d", ErrNotFound, taskID)
		}

		completed := !t.Completed
		if err := r.Tasks.SetCompleted(ctx, t.ID, completed, now); err != nil {
			return err
		}

		var balance int
		if completed {
			balance, err = e.ledger.apply(ctx, r, m, t.Points, t.Title+" completed")
			if err != nil {
				return err
			}
			if _, err := e.streaks.record(ctx, r, m, now); err != nil {
				return err
			}
			ev = Event{Kind: EventTaskCompleted, Amount: t.Points}
		} else {
			balance, err = e.ledger.apply(ctx, r, m, -t.Points, t.Title+" unchecked")
			if err != nil {
				return err
			}
			ev = Event{Kind: EventTaskUnchecked, Amount: -t.Points}
		}

		t, err = r.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		res = ToggleResult{Task: t, Completed: completed, Balance: balance}
		ev.MemberID, ev.MemberName, ev.Balance = m.ID, m.Name, balance
		ev.TaskID, ev.TaskTitle, ev.At = t.ID, t.Title, now
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.d.logger.Info("task toggled", "member_id", memberID, "task_id", taskID, "completed", res.Completed, "balance", res.Balance)
	e.d.emit(ctx, ev)
	return &res, nil
}
