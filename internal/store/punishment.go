package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

type PunishmentStore struct {
	q Querier
}

func (s *PunishmentStore) Create(ctx context.Context, memberID int64, reason string, points int, createdAt time.Time) (*model.Punishment, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO punishments (member_id, reason, points, created_at) VALUES (?, ?, ?, ?)`,
		memberID, reason, points, createdAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert punishment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var p model.Punishment
	if err := s.q.GetContext(ctx, &p, `SELECT id, member_id, reason, points, created_at FROM punishments WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get punishment: %w", err)
	}
	return &p, nil
}

func (s *PunishmentStore) ListByMember(ctx context.Context, memberID int64) ([]model.Punishment, error) {
	var out []model.Punishment
	err := s.q.SelectContext(ctx, &out,
		`SELECT id, member_id, reason, points, created_at FROM punishments WHERE member_id = ? ORDER BY created_at DESC, id DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list punishments: %w", err)
	}
	return out, nil
}
