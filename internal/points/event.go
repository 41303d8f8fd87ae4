package points

import (
	"context"
	"time"
)

type EventKind string

const (
	EventTaskCompleted   EventKind = "task_completed"
	EventTaskUnchecked   EventKind = "task_unchecked"
	EventPointsAdjusted  EventKind = "points_adjusted"
	EventPunished        EventKind = "punished"
	EventRewardSettled   EventKind = "reward_settled"
	EventRequestPending  EventKind = "request_pending"
	EventRequestApproved EventKind = "request_approved"
	EventRequestDenied   EventKind = "request_denied"
)

// Event describes a committed state change. Amount is the signed change
// that was requested; Balance is the member's balance afterwards.
type Event struct {
	Kind        EventKind `json:"kind"`
	MemberID    int64     `json:"member_id"`
	MemberName  string    `json:"member_name"`
	Amount      int       `json:"amount"`
	Balance     int       `json:"balance"`
	TaskID      int64     `json:"task_id,omitempty"`
	TaskTitle   string    `json:"task_title,omitempty"`
	RewardTitle string    `json:"reward_title,omitempty"`
	RequestID   int64     `json:"request_id,omitempty"`
	At          time.Time `json:"at"`
}

// Notifier receives events after their transaction has committed. Delivery
// is best effort; a Notifier must not block for long.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}
