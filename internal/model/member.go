package model

import "time"

type Role string

const (
	RoleChild Role = "Child"
	RoleAdult Role = "Adult"
	RoleGuest Role = "Guest"
	RoleStaff Role = "Staff"
	RoleOther Role = "Other"
)

func (r Role) Valid() bool {
	switch r {
	case RoleChild, RoleAdult, RoleGuest, RoleStaff, RoleOther:
		return true
	}
	return false
}

// Member is a household participant. Points never go below zero.
type Member struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Role           Role      `json:"role" db:"role"`
	Color          string    `json:"color" db:"color"`
	AvatarEmoji    string    `json:"avatar_emoji" db:"avatar_emoji"`
	HasPIN         bool      `json:"has_pin" db:"has_pin"`
	Points         int       `json:"points" db:"points"`
	CurrentStreak  int       `json:"current_streak" db:"current_streak"`
	LongestStreak  int       `json:"longest_streak" db:"longest_streak"`
	LastStreakDate *string   `json:"last_streak_date" db:"last_streak_date"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type LeaderboardEntry struct {
	MemberID      int64  `json:"member_id" db:"id"`
	MemberName    string `json:"member_name" db:"name"`
	AvatarEmoji   string `json:"avatar_emoji" db:"avatar_emoji"`
	Points        int    `json:"points" db:"points"`
	CurrentStreak int    `json:"current_streak" db:"current_streak"`
	LongestStreak int    `json:"longest_streak" db:"longest_streak"`
}
