package model

import "time"

type Reward struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Cost        int       `json:"cost" db:"cost"`
	Icon        string    `json:"icon" db:"icon"`
	Category    string    `json:"category" db:"category"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type RewardInput struct {
	Title       string
	Description string
	Cost        int
	Icon        string
	Category    string
	Active      bool
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestDenied:
		return true
	}
	return false
}

// RewardRequest is a redemption waiting for adult approval. Cost was already
// deducted from the member when the request was created.
type RewardRequest struct {
	ID          int64         `json:"id" db:"id"`
	MemberID    int64         `json:"member_id" db:"member_id"`
	MemberName  string        `json:"member_name" db:"member_name"`
	RewardID    *int64        `json:"reward_id" db:"reward_id"`
	Title       string        `json:"title" db:"title"`
	Cost        int           `json:"cost" db:"cost"`
	Status      RequestStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time    `json:"processed_at" db:"processed_at"`
}
