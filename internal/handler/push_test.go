package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dukerupert/choreboard/internal/model"
)

func TestPushSubscribeAndUnsubscribe(t *testing.T) {
	api := newTestAPI(t)
	m := api.member(t, "Alex", model.RoleChild, 0)

	body := map[string]any{"member_id": m.ID, "endpoint": "https://push.example/abc", "p256dh": "key", "auth": "secret"}
	rec := api.do(t, "POST", "/api/push/subscribe", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}
	first := decode[model.PushSubscription](t, rec)

	// Same endpoint again replaces the stored keys.
	body["auth"] = "rotated"
	rec = api.do(t, "POST", "/api/push/subscribe", body)
	second := decode[model.PushSubscription](t, rec)
	if second.ID != first.ID || second.AuthKey != "rotated" {
		t.Errorf("resubscribe = (%d, %q), want (%d, %q)", second.ID, second.AuthKey, first.ID, "rotated")
	}

	if rec := api.do(t, "POST", "/api/push/subscribe", map[string]any{"endpoint": "x"}); rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := api.do(t, "POST", "/api/push/subscribe", map[string]any{"member_id": 999, "endpoint": "x", "p256dh": "k", "auth": "a"}); rec.Code != http.StatusNotFound {
		t.Errorf("unknown member status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	path := fmt.Sprintf("/api/push/subscriptions/%d", first.ID)
	if rec := api.do(t, "DELETE", path, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := api.do(t, "DELETE", path, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestVAPIDKeyNotConfigured(t *testing.T) {
	api := newTestAPI(t)
	if rec := api.do(t, "GET", "/api/push/vapid-key", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
