package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/choreboard/internal/model"
)

type PushStore struct {
	q Querier
}

const pushCols = `id, member_id, endpoint, p256dh_key, auth_key, user_agent, created_at`

// Upsert stores a browser subscription. Re-subscribing the same endpoint
// refreshes its keys instead of creating a duplicate.
func (s *PushStore) Upsert(ctx context.Context, memberID *int64, endpoint, p256dh, auth, userAgent string) (*model.PushSubscription, error) {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO push_subscriptions (member_id, endpoint, p256dh_key, auth_key, user_agent)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET
		   member_id = excluded.member_id,
		   p256dh_key = excluded.p256dh_key,
		   auth_key = excluded.auth_key,
		   user_agent = excluded.user_agent`,
		memberID, endpoint, p256dh, auth, userAgent,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert push subscription: %w", err)
	}

	var sub model.PushSubscription
	if err := s.q.GetContext(ctx, &sub, `SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint); err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return &sub, nil
}

func (s *PushStore) GetByID(ctx context.Context, id int64) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.q.GetContext(ctx, &sub, `SELECT `+pushCols+` FROM push_subscriptions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return &sub, nil
}

func (s *PushStore) List(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.q.SelectContext(ctx, &subs, `SELECT `+pushCols+` FROM push_subscriptions ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return subs, nil
}

func (s *PushStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint); err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}
