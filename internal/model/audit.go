package model

import "time"

type LogType string

const (
	LogSuccess LogType = "success"
	LogWarning LogType = "warning"
	LogInfo    LogType = "info"
	LogError   LogType = "error"
)

// AuditLogEntry is append-only. MemberName is a snapshot so entries survive
// member deletion.
type AuditLogEntry struct {
	ID          int64     `json:"id" db:"id"`
	MemberID    *int64    `json:"member_id" db:"member_id"`
	MemberName  *string   `json:"member_name" db:"member_name"`
	Action      string    `json:"action" db:"action"`
	Type        LogType   `json:"type" db:"type"`
	PointsDelta *int      `json:"points_delta" db:"points_delta"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Punishment struct {
	ID        int64     `json:"id" db:"id"`
	MemberID  int64     `json:"member_id" db:"member_id"`
	Reason    string    `json:"reason" db:"reason"`
	Points    int       `json:"points" db:"points"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
