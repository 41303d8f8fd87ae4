package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/choreboard/internal/model"
)

type MemberStore struct {
	q Querier
}

const memberCols = `id, name, role, color, avatar_emoji, pin IS NOT NULL AS has_pin, points,
	current_streak, longest_streak, last_streak_date, created_at, updated_at`

func (s *MemberStore) Create(ctx context.Context, name string, role model.Role, color, avatarEmoji string) (*model.Member, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO members (name, role, color, avatar_emoji) VALUES (?, ?, ?, ?)`,
		name, role, color, avatarEmoji,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MemberStore) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	var m model.Member
	err := s.q.GetContext(ctx, &m, `SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

func (s *MemberStore) List(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := s.q.SelectContext(ctx, &members, `SELECT `+memberCols+` FROM members ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *MemberStore) Update(ctx context.Context, id int64, name string, role model.Role, color, avatarEmoji string) (*model.Member, error) {
	_, err := s.q.ExecContext(ctx,
		`UPDATE members SET name = ?, role = ?, color = ?, avatar_emoji = ? WHERE id = ?`,
		name, role, color, avatarEmoji, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the member. Tasks, reward requests, punishments and push
// subscriptions go with it through ON DELETE CASCADE.
func (s *MemberStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (s *MemberStore) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int
	err := s.q.GetContext(ctx, &count, `SELECT COUNT(*) FROM members WHERE name = ? AND id != ?`, name, excludeID)
	if err != nil {
		return false, fmt.Errorf("check name exists: %w", err)
	}
	return count > 0, nil
}

func (s *MemberStore) SetPoints(ctx context.Context, id int64, points int) error {
	if points < 0 {
		return fmt.Errorf("set points: negative balance %d", points)
	}
	if _, err := s.q.ExecContext(ctx, `UPDATE members SET points = ? WHERE id = ?`, points, id); err != nil {
		return fmt.Errorf("set points: %w", err)
	}
	return nil
}

func (s *MemberStore) SetStreak(ctx context.Context, id int64, current, longest int, lastDate string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE members SET current_streak = ?, longest_streak = ?, last_streak_date = ? WHERE id = ?`,
		current, longest, lastDate, id,
	)
	if err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}

func (s *MemberStore) SetPIN(ctx context.Context, id int64, hashedPIN string) error {
	if _, err := s.q.ExecContext(ctx, `UPDATE members SET pin = ? WHERE id = ?`, hashedPIN, id); err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *MemberStore) ClearPIN(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, `UPDATE members SET pin = NULL WHERE id = ?`, id); err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

// GetPINHash returns "" when the member has no PIN.
func (s *MemberStore) GetPINHash(ctx context.Context, id int64) (string, error) {
	var pin sql.NullString
	err := s.q.GetContext(ctx, &pin, `SELECT pin FROM members WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("member %d not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("query pin: %w", err)
	}
	return pin.String, nil
}

// Leaderboard returns every member ordered by balance, highest first.
func (s *MemberStore) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := s.q.SelectContext(ctx, &entries,
		`SELECT id, name, avatar_emoji, points, current_streak, longest_streak
		 FROM members ORDER BY points DESC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return entries, nil
}
