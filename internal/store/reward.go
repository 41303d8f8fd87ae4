package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/choreboard/internal/model"
)

type RewardStore struct {
	q Querier
}

const rewardCols = `id, title, description, cost, icon, category, active, created_at, updated_at`

func (s *RewardStore) Create(ctx context.Context, in model.RewardInput) (*model.Reward, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO rewards (title, description, cost, icon, category, active) VALUES (?, ?, ?, ?, ?, ?)`,
		in.Title, in.Description, in.Cost, in.Icon, in.Category, boolInt(in.Active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RewardStore) GetByID(ctx context.Context, id int64) (*model.Reward, error) {
	var r model.Reward
	err := s.q.GetContext(ctx, &r, `SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return &r, nil
}

// List returns all rewards, active first, then by cost and title.
func (s *RewardStore) List(ctx context.Context) ([]model.Reward, error) {
	var rewards []model.Reward
	err := s.q.SelectContext(ctx, &rewards, `SELECT `+rewardCols+` FROM rewards ORDER BY active DESC, cost ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	return rewards, nil
}

func (s *RewardStore) ListActive(ctx context.Context) ([]model.Reward, error) {
	var rewards []model.Reward
	err := s.q.SelectContext(ctx, &rewards, `SELECT `+rewardCols+` FROM rewards WHERE active = 1 ORDER BY cost ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active rewards: %w", err)
	}
	return rewards, nil
}

func (s *RewardStore) Update(ctx context.Context, id int64, in model.RewardInput) (*model.Reward, error) {
	_, err := s.q.ExecContext(ctx,
		`UPDATE rewards SET title = ?, description = ?, cost = ?, icon = ?, category = ?, active = ? WHERE id = ?`,
		in.Title, in.Description, in.Cost, in.Icon, in.Category, boolInt(in.Active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RewardStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM rewards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}
