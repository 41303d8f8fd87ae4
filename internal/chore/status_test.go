package chore

import (
	"testing"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

func strPtr(s string) *string { return &s }

func TestComputeStatus(t *testing.T) {
	thursdayMorning := time.Date(2026, 2, 5, 7, 30, 0, 0, time.UTC)
	thursdayEvening := time.Date(2026, 2, 5, 20, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task model.Task
		now  time.Time
		want Status
	}{
		{"completed", model.Task{Completed: true, Recurrence: model.RecurrenceDaily}, thursdayMorning, StatusCompleted},
		{"pending daily", model.Task{Recurrence: model.RecurrenceDaily}, thursdayMorning, StatusPending},
		{"weekdays task on weekend", model.Task{Recurrence: model.RecurrenceWeekdays}, saturday, StatusNotDue},
		{"weekends task on weekday", model.Task{Recurrence: model.RecurrenceWeekends}, thursdayMorning, StatusNotDue},
		{"before end time", model.Task{Recurrence: model.RecurrenceDaily, EndTime: strPtr("08:00")}, thursdayMorning, StatusPending},
		{"past end time", model.Task{Recurrence: model.RecurrenceDaily, EndTime: strPtr("19:00")}, thursdayEvening, StatusOverdue},
		{"bad end time ignored", model.Task{Recurrence: model.RecurrenceNone, EndTime: strPtr("late")}, thursdayEvening, StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeStatus(tt.task, tt.now); got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithStatus(t *testing.T) {
	now := time.Date(2026, 2, 5, 7, 30, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: 1, Completed: true, Recurrence: model.RecurrenceDaily},
		{ID: 2, Recurrence: model.RecurrenceDaily},
	}

	got := WithStatus(tasks, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	if got[0].Status != StatusCompleted || got[1].Status != StatusPending {
		t.Errorf("statuses = %q/%q, want completed/pending", got[0].Status, got[1].Status)
	}
}
