package points

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

// RedeemResult reports which branch a redemption took. RequestID is set
// only when approval is required.
type RedeemResult struct {
	Settled          bool                 `json:"settled"`
	RequiresApproval bool                 `json:"requires_approval"`
	RequestID        int64                `json:"request_id,omitempty"`
	Request          *model.RewardRequest `json:"request,omitempty"`
	Balance          int                  `json:"balance"`
}

// RedemptionWorkflow spends points on rewards. Costs up to the approval
// threshold settle at once; anything above it is deducted immediately and
// held in a pending request until an adult approves or denies it.
type RedemptionWorkflow struct {
	d      *deps
	ledger *Ledger
}

func (w *RedemptionWorkflow) Threshold() int {
	return w.d.cfg.ApprovalThreshold
}

func (w *RedemptionWorkflow) Redeem(ctx context.Context, memberID, rewardID int64) (*RedeemResult, error) {
	unlock := w.d.locks.Lock(memberID)
	defer unlock()

	now := w.d.now()
	var (
		res RedeemResult
		ev  Event
	)
	err := w.d.store.WithTx(ctx, func(r store.Repos) error {
		m, err := r.Members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return memberNotFound(memberID)
		}
		reward, err := r.Rewards.GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if reward == nil {
			return fmt.Errorf("%w: reward %d", ErrNotFound, rewardID)
		}
		if !reward.Active {
			return fmt.Errorf("%w: reward %q is not active", ErrInvalidInput, reward.Title)
		}
		if m.Points < reward.Cost {
			return fmt.Errorf("%w: %s has %d, %q costs %d", ErrInsufficientPoints, m.Name, m.Points, reward.Title, reward.Cost)
		}

		delta := -reward.Cost
		ev = Event{MemberID: m.ID, MemberName: m.Name, Amount: delta, RewardTitle: reward.Title, At: now}

		if reward.Cost <= w.d.cfg.ApprovalThreshold {
			action := fmt.Sprintf("Redeemed %s (%d points)", reward.Title, reward.Cost)
			balance, err := w.ledger.applyWithEntry(ctx, r, m, delta, auditEntry(m, action, model.LogSuccess, &delta))
			if err != nil {
				return err
			}
			res = RedeemResult{Settled: true, Balance: balance}
			ev.Kind, ev.Balance = EventRewardSettled, balance
			return nil
		}

		req, err := r.Requests.Create(ctx, m, reward, now)
		if err != nil {
			return err
		}
		action := fmt.Sprintf("Requested %s (%d points), awaiting approval", reward.Title, reward.Cost)
		balance, err := w.ledger.applyWithEntry(ctx, r, m, delta, auditEntry(m, action, model.LogInfo, &delta))
		if err != nil {
			return err
		}
		res = RedeemResult{RequiresApproval: true, RequestID: req.ID, Request: req, Balance: balance}
		ev.Kind, ev.Balance, ev.RequestID = EventRequestPending, balance, req.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.d.logger.Info("reward redeemed", "member_id", memberID, "reward_id", rewardID,
		"settled", res.Settled, "request_id", res.RequestID, "balance", res.Balance)
	w.d.emit(ctx, ev)
	return &res, nil
}

// ProcessRequest approves or denies a pending request. Denial refunds the
// held cost exactly; approval changes no balance. A request leaves pending
// at most once.
func (w *RedemptionWorkflow) ProcessRequest(ctx context.Context, requestID int64, approve bool) (*model.RewardRequest, error) {
	req, err := w.d.store.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: reward request %d", ErrNotFound, requestID)
	}

	unlock := w.d.locks.Lock(req.MemberID)
	defer unlock()

	now := w.d.now()
	status := model.RequestDenied
	if approve {
		status = model.RequestApproved
	}

	var (
		out *model.RewardRequest
		ev  Event
	)
	err = w.d.store.WithTx(ctx, func(r store.Repos) error {
		ok, err := r.Requests.Resolve(ctx, requestID, status, now)
		if err != nil {
			return err
		}
		if !ok {
			cur, err := r.Requests.GetByID(ctx, requestID)
			if err != nil {
				return err
			}
			if cur == nil {
				return fmt.Errorf("%w: reward request %d", ErrNotFound, requestID)
			}
			return fmt.Errorf("%w: request %d is %s", ErrAlreadyProcessed, requestID, cur.Status)
		}

		m, err := r.Members.GetByID(ctx, req.MemberID)
		if err != nil {
			return err
		}
		if m == nil {
			return memberNotFound(req.MemberID)
		}

		ev = Event{MemberID: m.ID, MemberName: m.Name, RewardTitle: req.Title, RequestID: req.ID, At: now}
		if approve {
			action := fmt.Sprintf("Request for %s approved", req.Title)
			if _, err := r.Audit.Append(ctx, withTime(auditEntry(m, action, model.LogSuccess, nil), now)); err != nil {
				return err
			}
			ev.Kind, ev.Balance = EventRequestApproved, m.Points
		} else {
			refund := req.Cost
			action := fmt.Sprintf("Request for %s denied, %d points refunded", req.Title, req.Cost)
			balance, err := w.ledger.applyWithEntry(ctx, r, m, refund, auditEntry(m, action, model.LogWarning, &refund))
			if err != nil {
				return err
			}
			ev.Kind, ev.Amount, ev.Balance = EventRequestDenied, refund, balance
		}

		out, err = r.Requests.GetByID(ctx, requestID)
		return err
	})
	if err != nil {
		return nil, err
	}

	w.d.logger.Info("reward request processed", "request_id", requestID, "member_id", req.MemberID, "status", string(status))
	w.d.emit(ctx, ev)
	return out, nil
}

func withTime(e model.AuditLogEntry, t time.Time) model.AuditLogEntry {
	e.CreatedAt = t
	return e
}
