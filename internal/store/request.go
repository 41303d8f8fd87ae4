package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

type RequestStore struct {
	q Querier
}

const requestCols = `id, member_id, member_name, reward_id, title, cost, status, created_at, processed_at`

// Create inserts a pending request carrying the member and reward snapshot.
func (s *RequestStore) Create(ctx context.Context, member *model.Member, reward *model.Reward, createdAt time.Time) (*model.RewardRequest, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO reward_requests (member_id, member_name, reward_id, title, cost, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		member.ID, member.Name, reward.ID, reward.Title, reward.Cost, model.RequestPending, createdAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RequestStore) GetByID(ctx context.Context, id int64) (*model.RewardRequest, error) {
	var r model.RewardRequest
	err := s.q.GetContext(ctx, &r, `SELECT `+requestCols+` FROM reward_requests WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward request: %w", err)
	}
	return &r, nil
}

// List returns requests newest first. An empty status returns every request.
func (s *RequestStore) List(ctx context.Context, status model.RequestStatus) ([]model.RewardRequest, error) {
	var requests []model.RewardRequest
	var err error
	if status == "" {
		err = s.q.SelectContext(ctx, &requests, `SELECT `+requestCols+` FROM reward_requests ORDER BY created_at DESC, id DESC`)
	} else {
		err = s.q.SelectContext(ctx, &requests,
			`SELECT `+requestCols+` FROM reward_requests WHERE status = ? ORDER BY created_at DESC, id DESC`,
			status,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list reward requests: %w", err)
	}
	return requests, nil
}

// Resolve moves a pending request to a terminal status. It reports false
// when the request was no longer pending.
func (s *RequestStore) Resolve(ctx context.Context, id int64, status model.RequestStatus, processedAt time.Time) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE reward_requests SET status = ?, processed_at = ? WHERE id = ? AND status = ?`,
		status, processedAt.UTC(), id, model.RequestPending,
	)
	if err != nil {
		return false, fmt.Errorf("resolve reward request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
