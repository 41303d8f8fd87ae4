package points

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dukerupert/choreboard/internal/model"
)

func TestRedeemThresholdBranch(t *testing.T) {
	tests := []struct {
		name         string
		cost         int
		wantSettled  bool
		wantApproval bool
	}{
		{"below threshold", 50, true, false},
		{"at threshold", 1000, true, false},
		{"above threshold", 1001, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			m := f.member(t, "Emma", 2000)
			r := f.reward(t, "Prize", tt.cost)

			res, err := f.svc.Redemptions.Redeem(ctx, m.ID, r.ID)
			if err != nil {
				t.Fatalf("Redeem: %v", err)
			}
			if res.Settled != tt.wantSettled || res.RequiresApproval != tt.wantApproval {
				t.Errorf("settled/approval = %v/%v, want %v/%v", res.Settled, res.RequiresApproval, tt.wantSettled, tt.wantApproval)
			}
			if res.Balance != 2000-tt.cost {
				t.Errorf("balance = %d, want %d", res.Balance, 2000-tt.cost)
			}
			if b := f.balance(t, m.ID); b != 2000-tt.cost {
				t.Errorf("stored balance = %d, want %d", b, 2000-tt.cost)
			}

			entries := f.audit(t, m.ID)
			if len(entries) != 1 {
				t.Fatalf("expected 1 audit entry, got %d", len(entries))
			}
			wantType := model.LogSuccess
			if tt.wantApproval {
				wantType = model.LogInfo
			}
			if entries[0].Type != wantType {
				t.Errorf("audit type = %q, want %q", entries[0].Type, wantType)
			}

			pending, err := f.st.Requests.List(ctx, model.RequestPending)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if tt.wantApproval {
				if len(pending) != 1 || pending[0].ID != res.RequestID {
					t.Fatalf("expected pending request %d, got %+v", res.RequestID, pending)
				}
				if pending[0].Title != "Prize" || pending[0].Cost != tt.cost || pending[0].MemberName != "Emma" {
					t.Errorf("request snapshot = %+v", pending[0])
				}
			} else if len(pending) != 0 {
				t.Errorf("expected no pending requests, got %d", len(pending))
			}
		})
	}
}

func TestRedeemInsufficientPoints(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.member(t, "Emma", 99)
	r := f.reward(t, "Movie night", 100)

	_, err := f.svc.Redemptions.Redeem(ctx, m.ID, r.ID)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}
	if b := f.balance(t, m.ID); b != 99 {
		t.Errorf("balance = %d, want 99", b)
	}
	if entries := f.audit(t, m.ID); len(entries) != 0 {
		t.Errorf("expected no audit entries, got %d", len(entries))
	}
	if kinds := f.rec.kinds(); len(kinds) != 0 {
		t.Errorf("expected no events, got %v", kinds)
	}
}

func TestRedeemNotFoundAndInactive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.member(t, "Emma", 500)
	r := f.reward(t, "Ice cream", 50)

	if _, err := f.svc.Redemptions.Redeem(ctx, 999, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown member: err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Redemptions.Redeem(ctx, m.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown reward: err = %v, want ErrNotFound", err)
	}

	if _, err := f.st.Rewards.Update(ctx, r.ID, model.RewardInput{Title: r.Title, Cost: r.Cost, Category: "other", Active: false}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := f.svc.Redemptions.Redeem(ctx, m.ID, r.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("inactive reward: err = %v, want ErrInvalidInput", err)
	}
	if b := f.balance(t, m.ID); b != 500 {
		t.Errorf("balance = %d, want 500", b)
	}
}

func TestDenyRefundsExactly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.member(t, "Emma", 2000)
	r := f.reward(t, "Theme park", 1500)

	res, err := f.svc.Redemptions.Redeem(ctx, m.ID, r.ID)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if b := f.balance(t, m.ID); b != 500 {
		t.Fatalf("balance after hold = %d, want 500", b)
	}

	req, err := f.svc.Redemptions.ProcessRequest(ctx, res.RequestID, false)
	if err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}
	if req.Status != model.RequestDenied || req.ProcessedAt == nil {
		t.Errorf("request = %+v, want denied with processed_at", req)
	}
	if b := f.balance(t, m.ID); b != 2000 {
		t.Errorf("balance after denial = %d, want 2000", b)
	}

	entries := f.audit(t, m.ID)
	if len(entries) != 2 || entries[0].Type != model.LogWarning {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}
	if entries[0].PointsDelta == nil || *entries[0].PointsDelta != 1500 {
		t.Errorf("refund delta = %v, want 1500", entries[0].PointsDelta)
	}
}

func TestDenyRefundAfterSpendingRest(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.member(t, "Emma", 1500)
	r := f.reward(t, "Bike", 1500)

	res, err := f.svc.Redemptions.Redeem(ctx, m.ID, r.ID)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	// The held points cannot be spent again while pending.
	small := f.reward(t, "Sticker", 1)
	if _, err := f.svc.Redemptions.Redeem(ctx, m.ID, small.ID); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("err = %v, want ErrInsufficientPoints", err)
	}

	if _, err := f.svc.Redemptions.ProcessRequest(ctx, res.RequestID, false); err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}
	if b := f.balance(t, m.ID); b != 1500 {
		t.Errorf("balance = %d, want 1500", b)
	}
}

func TestApproveKeepsBalance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.member(t, "Emma", 1200)
	r := f.reward(t, "Console game", 1100)

	res, err := f.svc.Redemptions.Redeem(ctx, m.ID, r.ID)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	req, err := f.svc.Redemptions.ProcessRequest(ctx, res.RequestID, true)
	if err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}
	if req.Status != model.RequestApproved {
		t.Errorf("status = %q, want approved", req.Status)
	}
	if b := f.balance(t, m.ID); b != 100 {
		t.Errorf("balance = %d, want 100", b)
	}

	entries := f.audit(t, m.ID)
	if len(entries) != 2 || entries[0].Type != model.LogSuccess || entries[0].PointsDelta != nil {
		t.Errorf("unexpected audit entries: %+v", entries)
	}

	kinds := f.rec.kinds()
	if len(kinds) != 2 || kinds[0] != EventRequestPending || kinds[1] != EventRequestApproved {
		t.Errorf("events = %v", kinds)
	}
}

func TestProcessRequestTwice(t *testing.T) {
	for _, first := range []bool{true, false} {
		f := setup(t)
		ctx := context.Background()
		m := f.member(t, "Emma", 500)
		if err := f.st.Members.SetPoints(ctx, m.ID, 2000); err != nil {
			t.Fatalf("SetPoints: %v", err)
		}
		r := f.reward(t, "Theme park", 1500)

		res, err := f.svc.Redemptions.Redeem(ctx, m.ID, r.ID)
		if err != nil {
			t.Fatalf("Redeem: %v", err)
		}
		if _, err := f.svc.Redemptions.ProcessRequest(ctx, res.RequestID, first); err != nil {
			t.Fatalf("first ProcessRequest: %v", err)
		}
		before := f.balance(t, m.ID)

		for _, second := range []bool{true, false} {
			if _, err := f.svc.Redemptions.ProcessRequest(ctx, res.RequestID, second); !errors.Is(err, ErrAlreadyProcessed) {
				t.Errorf("second ProcessRequest(%v) after %v: err = %v, want ErrAlreadyProcessed", second, first, err)
			}
		}
		if b := f.balance(t, m.ID); b != before {
			t.Errorf("balance changed on repeat processing: %d -> %d", before, b)
		}
	}
}

func TestProcessRequestNotFound(t *testing.T) {
	f := setup(t)
	if _, err := f.svc.Redemptions.ProcessRequest(context.Background(), 42, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestConcurrentDenialsRefundOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.member(t, "Emma", 500)
	if err := f.st.Members.SetPoints(ctx, m.ID, 2000); err != nil {
		t.Fatalf("SetPoints: %v", err)
	}
	r := f.reward(t, "Theme park", 1500)
	res, err := f.svc.Redemptions.Redeem(ctx, m.ID, r.ID)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Redemptions.ProcessRequest(ctx, res.RequestID, false); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
	if b := f.balance(t, m.ID); b != 2000 {
		t.Errorf("balance = %d, want 2000", b)
	}
}

func TestConcurrentRedeemsNeverOverspend(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.member(t, "Emma", 100)
	r := f.reward(t, "Candy", 30)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.Redemptions.Redeem(ctx, m.ID, r.ID)
		}()
	}
	wg.Wait()

	if b := f.balance(t, m.ID); b != 10 {
		t.Errorf("balance = %d, want 10", b)
	}
}
