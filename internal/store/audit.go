package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

type AuditStore struct {
	q Querier
}

const auditCols = `id, member_id, member_name, action, type, points_delta, created_at`

// Append writes an entry. ID and CreatedAt of the argument are ignored when
// zero; CreatedAt defaults to the database clock.
func (s *AuditStore) Append(ctx context.Context, e model.AuditLogEntry) (*model.AuditLogEntry, error) {
	var createdAt any
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt.UTC()
	}
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO audit_log (member_id, member_name, action, type, points_delta, created_at)
		 VALUES (?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))`,
		e.MemberID, e.MemberName, e.Action, e.Type, e.PointsDelta, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var out model.AuditLogEntry
	if err := s.q.GetContext(ctx, &out, `SELECT `+auditCols+` FROM audit_log WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get audit entry: %w", err)
	}
	return &out, nil
}

// List returns the newest entries first. A zero memberID returns entries for
// every member.
func (s *AuditStore) List(ctx context.Context, memberID int64, limit int) ([]model.AuditLogEntry, error) {
	var entries []model.AuditLogEntry
	var err error
	if memberID == 0 {
		err = s.q.SelectContext(ctx, &entries,
			`SELECT `+auditCols+` FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	} else {
		err = s.q.SelectContext(ctx, &entries,
			`SELECT `+auditCols+` FROM audit_log WHERE member_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
			memberID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// DeleteBefore trims entries older than cutoff and returns how many were removed.
func (s *AuditStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.q.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("trim audit log: %w", err)
	}
	return result.RowsAffected()
}
