package notify

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukerupert/choreboard/internal/database"
	"github.com/dukerupert/choreboard/internal/metrics"
	"github.com/dukerupert/choreboard/internal/points"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

type fakeHub struct {
	mu   sync.Mutex
	msgs []websocket.Message
}

func (h *fakeHub) Broadcast(msg websocket.Message) {
	h.mu.Lock()
	h.msgs = append(h.msgs, msg)
	h.mu.Unlock()
}

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.New(db)
}

// clientKeys returns browser-side subscription keys.
func clientKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

func TestNotifyBroadcastsAndCounts(t *testing.T) {
	hub := &fakeHub{}
	m := metrics.New()
	d := NewDispatcher(hub, m, nil, nil, slog.Default())

	d.Notify(context.Background(), points.Event{
		Kind: points.EventRequestPending, MemberID: 3, MemberName: "Emma",
		Amount: -1500, Balance: 500, RewardTitle: "Theme park", RequestID: 9,
	})
	d.Wait()

	if len(hub.msgs) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(hub.msgs))
	}
	msg := hub.msgs[0]
	if msg.Type != "points_request_pending" || msg.ID != 9 || msg.MemberID != 3 {
		t.Errorf("message = %+v", msg)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `choreboard_events_total{kind="request_pending"} 1`) {
		t.Error("expected request_pending to be counted")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		kind     points.EventKind
		wantPush bool
		contains string
	}{
		{points.EventRewardSettled, true, "redeemed Ice cream for 50 points"},
		{points.EventRequestPending, true, "wants Ice cream"},
		{points.EventRequestApproved, true, "approved"},
		{points.EventRequestDenied, true, "refunded"},
		{points.EventPunished, true, "lost"},
		{points.EventTaskCompleted, false, ""},
		{points.EventPointsAdjusted, false, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			amount := -50
			if tt.kind == points.EventRequestDenied {
				amount = 50
			}
			p, ok := Describe(points.Event{Kind: tt.kind, MemberName: "Emma", RewardTitle: "Ice cream", Amount: amount, Balance: 10})
			if ok != tt.wantPush {
				t.Fatalf("push = %v, want %v", ok, tt.wantPush)
			}
			if ok && !strings.Contains(p.Body, tt.contains) {
				t.Errorf("body = %q, want it to contain %q", p.Body, tt.contains)
			}
		})
	}
}

func TestNotifyPushesAndDropsExpired(t *testing.T) {
	var delivered atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/gone") {
			w.WriteHeader(http.StatusGone)
			return
		}
		delivered.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	st := setupStore(t)
	ctx := context.Background()
	emma, err := st.Members.Create(ctx, "Emma", "Child", "", "")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	liam, err := st.Members.Create(ctx, "Liam", "Child", "", "")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	p256dh, auth := clientKeys(t)
	subs := []struct {
		memberID *int64
		path     string
	}{
		{nil, "/parent"},
		{&emma.ID, "/emma"},
		{&liam.ID, "/liam"},
		{nil, "/gone"},
	}
	for _, s := range subs {
		if _, err := st.Push.Upsert(ctx, s.memberID, srv.URL+s.path, p256dh, auth, "test"); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("GenerateVAPIDKeys: %v", err)
	}
	m := metrics.New()
	d := NewDispatcher(&fakeHub{}, m, NewPushSender(pub, priv, "mailto:test@example.com"), st.Push, slog.Default())

	d.Notify(ctx, points.Event{
		Kind: points.EventRewardSettled, MemberID: emma.ID, MemberName: "Emma",
		Amount: -50, Balance: 10, RewardTitle: "Ice cream", At: time.Now(),
	})
	d.Wait()

	// parent + emma; liam's device is filtered out, /gone answers 410.
	if got := delivered.Load(); got != 2 {
		t.Errorf("delivered = %d, want 2", got)
	}
	remaining, err := st.Push.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 3 {
		t.Errorf("subscriptions = %d, want 3 after dropping expired", len(remaining))
	}
}
