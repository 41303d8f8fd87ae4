package chore

import (
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusNotDue    Status = "not_due"
)

type TaskWithStatus struct {
	model.Task
	Status Status `json:"status"`
}

// ComputeStatus derives the display status of a task at now. The schedule
// window is advisory: a task past its end time is shown as overdue but can
// still be completed.
func ComputeStatus(t model.Task, now time.Time) Status {
	if t.Completed {
		return StatusCompleted
	}

	switch t.Recurrence {
	case model.RecurrenceWeekdays:
		if !IsWeekday(now) {
			return StatusNotDue
		}
	case model.RecurrenceWeekends:
		if !IsWeekend(now) {
			return StatusNotDue
		}
	}

	if t.EndTime != nil {
		if end, err := time.Parse("15:04", *t.EndTime); err == nil {
			deadline := time.Date(now.Year(), now.Month(), now.Day(), end.Hour(), end.Minute(), 0, 0, now.Location())
			if now.After(deadline) {
				return StatusOverdue
			}
		}
	}
	return StatusPending
}

// WithStatus decorates tasks with their status at now.
func WithStatus(tasks []model.Task, now time.Time) []TaskWithStatus {
	out := make([]TaskWithStatus, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskWithStatus{Task: t, Status: ComputeStatus(t, now)})
	}
	return out
}
