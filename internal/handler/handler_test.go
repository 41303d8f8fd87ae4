package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/choreboard/internal/database"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/points"
	"github.com/dukerupert/choreboard/internal/store"
)

// Thursday 2026-02-05 18:00 UTC
var testNow = time.Date(2026, 2, 5, 18, 0, 0, 0, time.UTC)

type testAPI struct {
	mux *http.ServeMux
	st  *store.Store
	svc *points.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(db)
	now := func() time.Time { return testNow }
	svc := points.New(st, points.Config{
		ApprovalThreshold: 1000,
		Location:          time.UTC,
		Now:               now,
	}, nil, logger)

	members := NewMemberHandler(st, nil, logger)
	tasks := NewTaskHandler(st, svc.Tasks, nil, now, logger)
	rewards := NewRewardHandler(st, svc.Redemptions, nil, logger)
	requests := NewRequestHandler(st, svc.Redemptions, logger)
	pts := NewPointsHandler(st, svc.Ledger, svc.Resets, nil, logger)
	push := NewPushHandler(st, nil, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/members", members.List)
	mux.HandleFunc("POST /api/members", members.Create)
	mux.HandleFunc("PUT /api/members/{id}", members.Update)
	mux.HandleFunc("DELETE /api/members/{id}", members.Delete)
	mux.HandleFunc("POST /api/members/{id}/pin", members.SetPIN)
	mux.HandleFunc("DELETE /api/members/{id}/pin", members.ClearPIN)
	mux.HandleFunc("POST /api/members/{id}/pin/verify", members.VerifyPIN)
	mux.HandleFunc("POST /api/members/{id}/points", pts.Adjust)
	mux.HandleFunc("POST /api/members/{id}/punishments", pts.Punish)
	mux.HandleFunc("GET /api/members/{id}/punishments", pts.ListPunishments)
	mux.HandleFunc("GET /api/members/{id}/tasks", tasks.ListByMember)
	mux.HandleFunc("POST /api/members/{member_id}/tasks/{id}/toggle", tasks.Toggle)
	mux.HandleFunc("GET /api/tasks", tasks.List)
	mux.HandleFunc("POST /api/tasks", tasks.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", tasks.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", tasks.Delete)
	mux.HandleFunc("GET /api/rewards", rewards.List)
	mux.HandleFunc("POST /api/rewards", rewards.Create)
	mux.HandleFunc("PUT /api/rewards/{id}", rewards.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", rewards.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", rewards.Redeem)
	mux.HandleFunc("GET /api/reward-requests", requests.List)
	mux.HandleFunc("GET /api/reward-requests/{id}", requests.Get)
	mux.HandleFunc("POST /api/reward-requests/{id}/process", requests.Process)
	mux.HandleFunc("POST /api/admin/reset", pts.Reset)
	mux.HandleFunc("GET /api/leaderboard", pts.Leaderboard)
	mux.HandleFunc("GET /api/audit-log", pts.AuditLog)
	mux.HandleFunc("POST /api/push/subscribe", push.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", push.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", push.VAPIDKey)

	return &testAPI{mux: mux, st: st, svc: svc}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func (a *testAPI) member(t *testing.T, name string, role model.Role, pts int) *model.Member {
	t.Helper()
	ctx := context.Background()
	m, err := a.st.Members.Create(ctx, name, role, "#4A90D9", "")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if pts > 0 {
		if err := a.st.Members.SetPoints(ctx, m.ID, pts); err != nil {
			t.Fatalf("set points: %v", err)
		}
		m.Points = pts
	}
	return m
}

func (a *testAPI) reward(t *testing.T, title string, cost int) *model.Reward {
	t.Helper()
	r, err := a.st.Rewards.Create(context.Background(), model.RewardInput{
		Title: title, Cost: cost, Category: "treat", Active: true,
	})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	return r
}

func (a *testAPI) balance(t *testing.T, id int64) int {
	t.Helper()
	m, err := a.st.Members.GetByID(context.Background(), id)
	if err != nil || m == nil {
		t.Fatalf("get member %d: %v", id, err)
	}
	return m.Points
}

func TestWriteCoreError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		err  error
		want int
	}{
		{points.ErrNotFound, http.StatusNotFound},
		{points.ErrInsufficientPoints, http.StatusBadRequest},
		{points.ErrInvalidInput, http.StatusBadRequest},
		{points.ErrAlreadyProcessed, http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		writeCoreError(rec, req, logger, tt.err, "boom")
		if rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.want)
		}
		body := decode[map[string]string](t, rec)
		if body["error"] == "" {
			t.Errorf("%v: missing error message", tt.err)
		}
	}
}

func TestParsePathID(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"1", true},
		{"42", true},
		{"0", false},
		{"-3", false},
		{"abc", false},
		{"", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.SetPathValue("id", tt.value)
		_, err := parseIDParam(req)
		if (err == nil) != tt.ok {
			t.Errorf("parseIDParam(%q) err = %v, want ok %v", tt.value, err, tt.ok)
		}
	}
}
