// Package points implements the ledger, streaks, task completion, daily
// recurrence reset and reward redemption. Every compound mutation runs in a
// single store transaction while holding the affected member's lock.
package points

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/choreboard/internal/store"
)

const DefaultApprovalThreshold = 1000

type Config struct {
	// ApprovalThreshold is the highest cost that settles without approval.
	ApprovalThreshold int
	// Location defines the household calendar day. Defaults to time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

type deps struct {
	store  *store.Store
	locks  *memberLocks
	notify Notifier
	cfg    Config
	logger *slog.Logger
}

func (d *deps) now() time.Time {
	return d.cfg.Now().In(d.cfg.Location)
}

// emit hands committed events to the notifier. Call only after the
// transaction producing them has committed.
func (d *deps) emit(ctx context.Context, events ...Event) {
	for _, e := range events {
		d.notify.Notify(ctx, e)
	}
}

func memberNotFound(id int64) error {
	return fmt.Errorf("%w: member %d", ErrNotFound, id)
}

// Service bundles the components sharing one store and one set of member
// locks.
type Service struct {
	Ledger      *Ledger
	Streaks     *StreakTracker
	Tasks       *TaskEngine
	Resets      *ResetScheduler
	Redemptions *RedemptionWorkflow
}

func New(st *store.Store, cfg Config, n Notifier, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if n == nil {
		n = nopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &deps{
		store:  st,
		locks:  newMemberLocks(),
		notify: n,
		cfg:    cfg,
		logger: logger.With("component", "points"),
	}
	ledger := &Ledger{d: d}
	streaks := &StreakTracker{d: d}
	return &Service{
		Ledger:      ledger,
		Streaks:     streaks,
		Tasks:       &TaskEngine{d: d, ledger: ledger, streaks: streaks},
		Resets:      &ResetScheduler{d: d},
		Redemptions: &RedemptionWorkflow{d: d, ledger: ledger},
	}
}
