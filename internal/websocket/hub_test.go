package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

// mockClient has a send channel but no connection.
func mockClient(hub *Hub, memberID int64) *Client {
	return &Client{hub: hub, send: make(chan []byte, sendBufferSize), memberID: memberID}
}

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var m Message
			if err := json.Unmarshal(data, &m); err == nil {
				out = append(out, m)
			}
		default:
			return out
		}
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c1, c2 := mockClient(hub, 0), mockClient(hub, 0)

	hub.Register(c1)
	hub.Register(c2)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("client count = %d, want 2", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("client count = %d, want 1", got)
	}
}

func TestBroadcastMemberFilter(t *testing.T) {
	hub := NewHub(slog.Default())
	all := mockClient(hub, 0)
	emma := mockClient(hub, 1)
	liam := mockClient(hub, 2)
	for _, c := range []*Client{all, emma, liam} {
		hub.Register(c)
	}

	hub.Broadcast(NewMessage("points", "reward_settled", 10, 1, map[string]any{"balance": 40}))
	hub.Broadcast(NewMessage("task", "reset", 0, 0, nil))

	tests := []struct {
		name   string
		client *Client
		want   []string
	}{
		{"household display", all, []string{"points_reward_settled", "task_reset"}},
		{"matching member", emma, []string{"points_reward_settled", "task_reset"}},
		{"other member", liam, []string{"task_reset"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := drain(tt.client)
			if len(got) != len(tt.want) {
				t.Fatalf("received %d messages, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if m.Type != tt.want[i] {
					t.Errorf("message %d type = %q, want %q", i, m.Type, tt.want[i])
				}
			}
		})
	}
}

func TestBroadcastFullBufferDrops(t *testing.T) {
	hub := NewHub(slog.Default())
	dropped := 0
	hub.OnDrop(func() { dropped++ })

	c := mockClient(hub, 0)
	hub.Register(c)

	for i := 0; i < sendBufferSize+3; i++ {
		hub.Broadcast(NewMessage("test", "fill", int64(i), 0, nil))
	}

	if got := len(drain(c)); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d", got, sendBufferSize)
	}
	if dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("request", "denied", 5, 3, nil)
	if msg.Type != "request_denied" {
		t.Errorf("type = %q, want request_denied", msg.Type)
	}
	if msg.ID != 5 || msg.MemberID != 3 {
		t.Errorf("id/member = %d/%d, want 5/3", msg.ID, msg.MemberID)
	}
	if msg.At.IsZero() {
		t.Error("expected timestamp")
	}
}

func TestCloseDisconnectsAll(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 0)
	hub.Register(c)

	hub.Close()
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("client count = %d, want 0", got)
	}
	if _, ok := <-c.send; ok {
		t.Error("expected send channel to be closed")
	}
	// Run's deferred Unregister after Close must not panic.
	hub.Unregister(c)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			c := mockClient(hub, id%3)
			hub.Register(c)
			hub.Broadcast(NewMessage("test", "concurrent", 0, id%3, nil))
			drain(c)
			hub.Unregister(c)
		}(int64(i))
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("client count = %d, want 0", got)
	}
}
