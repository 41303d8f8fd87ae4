package points

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

const defaultAdjustReason = "Manual adjustment"

const (
	// MaxAmount bounds a single change: an adjustment, a punishment, a task's
	// points or a reward's cost.
	MaxAmount = 1_000_000
	// MaxBalance is where credits saturate.
	MaxBalance = 1_000_000_000
)

func checkAmount(n int) error {
	if n < -MaxAmount || n > MaxAmount {
		return fmt.Errorf("%w: amount %d is outside ±%d", ErrInvalidInput, n, MaxAmount)
	}
	return nil
}

// Ledger applies signed point deltas with a floor of zero. Every change is
// paired with an audit entry in the same transaction.
type Ledger struct {
	d *deps
}

// ApplyDelta adds delta to the member's balance, clamping at zero, and
// returns the new balance.
func (l *Ledger) ApplyDelta(ctx context.Context, memberID int64, delta int, reason string) (int, error) {
	if err := checkAmount(delta); err != nil {
		return 0, err
	}
	unlock := l.d.locks.Lock(memberID)
	defer unlock()

	var balance int
	err := l.d.store.WithTx(ctx, func(r store.Repos) error {
		m, err := r.Members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return memberNotFound(memberID)
		}
		balance, err = l.apply(ctx, r, m, delta, reason)
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// AdjustPoints is a manual ledger change. A missing or zero amount is
// rejected before anything is read.
func (l *Ledger) AdjustPoints(ctx context.Context, memberID int64, amount *int, reason string) (int, error) {
	if amount == nil {
		return 0, fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}
	if *amount == 0 {
		return 0, fmt.Errorf("%w: amount must not be zero", ErrInvalidInput)
	}
	if err := checkAmount(*amount); err != nil {
		return 0, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultAdjustReason
	}

	unlock := l.d.locks.Lock(memberID)
	defer unlock()

	now := l.d.now()
	var ev Event
	err := l.d.store.WithTx(ctx, func(r store.Repos) error {
		m, err := r.Members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return memberNotFound(memberID)
		}
		balance, err := l.apply(ctx, r, m, *amount, reason)
		if err != nil {
			return err
		}
		ev = Event{Kind: EventPointsAdjusted, MemberID: m.ID, MemberName: m.Name, Amount: *amount, Balance: balance, At: now}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.d.emit(ctx, ev)
	return ev.Balance, nil
}

// Punish records a punishment and deducts its points.
func (l *Ledger) Punish(ctx context.Context, memberID int64, pts int, reason string) (*model.Punishment, int, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, 0, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	if pts <= 0 {
		return nil, 0, fmt.Errorf("%w: points must be positive", ErrInvalidInput)
	}
	if err := checkAmount(pts); err != nil {
		return nil, 0, err
	}

	unlock := l.d.locks.Lock(memberID)
	defer unlock()

	now := l.d.now()
	var (
		p  *model.Punishment
		ev Event
	)
	err := l.d.store.WithTx(ctx, func(r store.Repos) error {
		m, err := r.Members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return memberNotFound(memberID)
		}
		p, err = r.Punishments.Create(ctx, memberID, reason, pts, now)
		if err != nil {
			return err
		}
		balance, err := l.apply(ctx, r, m, -pts, "Punishment: "+reason)
		if err != nil {
			return err
		}
		ev = Event{Kind: EventPunished, MemberID: m.ID, MemberName: m.Name, Amount: -pts, Balance: balance, At: now}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	l.d.emit(ctx, ev)
	return p, ev.Balance, nil
}

// apply runs inside the caller's transaction. m is updated in place.
func (l *Ledger) apply(ctx context.Context, r store.Repos, m *model.Member, delta int, reason string) (int, error) {
	logType := model.LogWarning
	if delta > 0 {
		logType = model.LogSuccess
	}
	return l.applyWithEntry(ctx, r, m, delta, auditEntry(m, fmt.Sprintf("%s (%+d points)", reason, delta), logType, &delta))
}

// applyWithEntry sets the clamped balance and writes entry. The entry keeps
// the requested delta even when the floor cut the effective change.
func (l *Ledger) applyWithEntry(ctx context.Context, r store.Repos, m *model.Member, delta int, entry model.AuditLogEntry) (int, error) {
	balance := addPoints(m.Points, delta)
	if err := r.Members.SetPoints(ctx, m.ID, balance); err != nil {
		return 0, err
	}
	entry.CreatedAt = l.d.now()
	if _, err := r.Audit.Append(ctx, entry); err != nil {
		return 0, err
	}

	l.d.logger.Debug("points applied", "member_id", m.ID, "delta", delta, "before", m.Points, "after", balance)
	m.Points = balance
	return balance, nil
}

func auditEntry(m *model.Member, action string, t model.LogType, delta *int) model.AuditLogEntry {
	id, name := m.ID, m.Name
	return model.AuditLogEntry{
		MemberID:    &id,
		MemberName:  &name,
		Action:      action,
		Type:        t,
		PointsDelta: delta,
	}
}

// addPoints saturates at zero and MaxBalance instead of wrapping.
func addPoints(balance, delta int) int {
	if delta > 0 && balance > MaxBalance-delta {
		return MaxBalance
	}
	return min(max(balance+delta, 0), MaxBalance)
}
