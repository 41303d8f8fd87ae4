package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/choreboard/internal/database"
	"github.com/dukerupert/choreboard/internal/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func mustMember(t *testing.T, s *Store, name string, role model.Role) *model.Member {
	t.Helper()
	m, err := s.Members.Create(context.Background(), name, role, "#FF0000", "A")
	if err != nil {
		t.Fatalf("create member %q: %v", name, err)
	}
	return m
}

func TestWithTxCommits(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	m := mustMember(t, s, "Alice", model.RoleChild)

	err := s.WithTx(ctx, func(r Repos) error {
		if err := r.Members.SetPoints(ctx, m.ID, 150); err != nil {
			return err
		}
		_, err := r.Audit.Append(ctx, model.AuditLogEntry{MemberID: &m.ID, Action: "bonus", Type: model.LogSuccess})
		return err
	})
	if err != nil {
		t.Fatalf("with tx: %v", err)
	}

	got, _ := s.Members.GetByID(ctx, m.ID)
	if got.Points != 150 {
		t.Errorf("points = %d, want 150", got.Points)
	}
	entries, _ := s.Audit.List(ctx, m.ID, 10)
	if len(entries) != 1 {
		t.Errorf("expected 1 audit entry, got %d", len(entries))
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	m := mustMember(t, s, "Alice", model.RoleChild)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(r Repos) error {
		if err := r.Members.SetPoints(ctx, m.ID, 500); err != nil {
			return err
		}
		if _, err := r.Audit.Append(ctx, model.AuditLogEntry{MemberID: &m.ID, Action: "bonus", Type: model.LogSuccess}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	got, _ := s.Members.GetByID(ctx, m.ID)
	if got.Points != 0 {
		t.Errorf("points = %d, want 0 after rollback", got.Points)
	}
	entries, _ := s.Audit.List(ctx, 0, 10)
	if len(entries) != 0 {
		t.Errorf("expected no audit entries after rollback, got %d", len(entries))
	}
}

func TestPointsCheckConstraint(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	m := mustMember(t, s, "Alice", model.RoleChild)

	if err := s.Members.SetPoints(ctx, m.ID, -1); err == nil {
		t.Error("expected error for negative balance")
	}
	if _, err := s.Members.q.ExecContext(ctx, `UPDATE members SET points = -5 WHERE id = ?`, m.ID); err == nil {
		t.Error("expected CHECK constraint to reject negative points")
	}
}
