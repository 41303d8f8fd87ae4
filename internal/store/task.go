package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

type TaskStore struct {
	q Querier
}

const taskCols = `id, member_id, title, points, completed, completed_at, category, recurrence,
	start_time, end_time, created_at, updated_at`

func (s *TaskStore) Create(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO tasks (member_id, title, points, category, recurrence, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.MemberID, in.Title, in.Points, in.Category, in.Recurrence, in.StartTime, in.EndTime,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TaskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	var t model.Task
	err := s.q.GetContext(ctx, &t, `SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

func (s *TaskStore) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := s.q.SelectContext(ctx, &tasks, `SELECT `+taskCols+` FROM tasks ORDER BY member_id ASC, title ASC`); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) ListByMember(ctx context.Context, memberID int64) ([]model.Task, error) {
	var tasks []model.Task
	err := s.q.SelectContext(ctx, &tasks,
		`SELECT `+taskCols+` FROM tasks WHERE member_id = ? ORDER BY start_time IS NULL, start_time ASC, title ASC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by member: %w", err)
	}
	return tasks, nil
}

// ListCompletedRecurring returns completed tasks that have a recurrence,
// i.e. the candidates for the daily reset.
func (s *TaskStore) ListCompletedRecurring(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := s.q.SelectContext(ctx, &tasks,
		`SELECT `+taskCols+` FROM tasks WHERE completed = 1 AND recurrence != 'none' ORDER BY member_id ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed recurring tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) Update(ctx context.Context, id int64, in model.TaskInput) (*model.Task, error) {
	_, err := s.q.ExecContext(ctx,
		`UPDATE tasks SET member_id = ?, title = ?, points = ?, category = ?, recurrence = ?,
		 start_time = ?, end_time = ? WHERE id = ?`,
		in.MemberID, in.Title, in.Points, in.Category, in.Recurrence, in.StartTime, in.EndTime, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(ctx, id)
}

// SetCompleted stores the completion flag. completedAt is ignored when
// completed is false so the flag and timestamp cannot disagree.
func (s *TaskStore) SetCompleted(ctx context.Context, id int64, completed bool, completedAt time.Time) error {
	var at any
	if completed {
		at = completedAt.UTC()
	}
	_, err := s.q.ExecContext(ctx,
		`UPDATE tasks SET completed = ?, completed_at = ? WHERE id = ?`,
		boolInt(completed), at, id,
	)
	if err != nil {
		return fmt.Errorf("set task completed: %w", err)
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
