package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx, so every repository
// works the same inside and outside a transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Repos groups the repositories bound to one Querier.
type Repos struct {
	Members     *MemberStore
	Tasks       *TaskStore
	Rewards     *RewardStore
	Requests    *RequestStore
	Audit       *AuditStore
	Punishments *PunishmentStore
	Push        *PushStore
}

func newRepos(q Querier) Repos {
	return Repos{
		Members:     &MemberStore{q: q},
		Tasks:       &TaskStore{q: q},
		Rewards:     &RewardStore{q: q},
		Requests:    &RequestStore{q: q},
		Audit:       &AuditStore{q: q},
		Punishments: &PunishmentStore{q: q},
		Push:        &PushStore{q: q},
	}
}

// Store owns the database handle. The embedded Repos run outside any
// transaction; WithTx hands out Repos bound to a single transaction.
type Store struct {
	db *sqlx.DB
	Repos
}

func New(db *sql.DB) *Store {
	x := sqlx.NewDb(db, "sqlite")
	return &Store{db: x, Repos: newRepos(x)}
}

// WithTx runs fn in a transaction. The transaction commits only if fn
// returns nil. Do not use the Store's own Repos inside fn: the pool holds a
// single connection and the call would block on it.
func (s *Store) WithTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
