package model

import "time"

type Recurrence string

const (
	RecurrenceNone     Recurrence = "none"
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekdays Recurrence = "weekdays"
	RecurrenceWeekends Recurrence = "weekends"
	RecurrenceWeekly   Recurrence = "weekly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekdays, RecurrenceWeekends, RecurrenceWeekly:
		return true
	}
	return false
}

type Category string

const (
	CategoryChore    Category = "chore"
	CategoryHomework Category = "homework"
	CategoryHygiene  Category = "hygiene"
	CategoryPets     Category = "pets"
	CategoryKindness Category = "kindness"
	CategoryOther    Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryChore, CategoryHomework, CategoryHygiene, CategoryPets, CategoryKindness, CategoryOther:
		return true
	}
	return false
}

// Task is a unit of work owned by one member. CompletedAt is nil whenever
// Completed is false. StartTime/EndTime ("HH:MM") are advisory only.
type Task struct {
	ID          int64      `json:"id" db:"id"`
	MemberID    int64      `json:"member_id" db:"member_id"`
	Title       string     `json:"title" db:"title"`
	Points      int        `json:"points" db:"points"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	Category    Category   `json:"category" db:"category"`
	Recurrence  Recurrence `json:"recurrence" db:"recurrence"`
	StartTime   *string    `json:"start_time" db:"start_time"`
	EndTime     *string    `json:"end_time" db:"end_time"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskInput carries the admin-editable fields of a task.
type TaskInput struct {
	MemberID   int64
	Title      string
	Points     int
	Category   Category
	Recurrence Recurrence
	StartTime  *string
	EndTime    *string
}
