package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Message is pushed to connected displays whenever board state changes.
// MemberID scopes the message to one member; zero means household-wide.
type Message struct {
	Type     string    `json:"type"`
	Entity   string    `json:"entity"`
	Action   string    `json:"action"`
	ID       int64     `json:"id,omitempty"`
	MemberID int64     `json:"member_id,omitempty"`
	Data     any       `json:"data,omitempty"`
	At       time.Time `json:"at"`
}

func NewMessage(entity, action string, id, memberID int64, data any) Message {
	return Message{
		Type:     fmt.Sprintf("%s_%s", entity, action),
		Entity:   entity,
		Action:   action,
		ID:       id,
		MemberID: memberID,
		Data:     data,
		At:       time.Now().UTC(),
	}
}

// Hub fans messages out to every registered client whose member filter
// matches.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
	onDrop  func()
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

// OnDrop registers a callback run whenever a slow client misses a message.
func (h *Hub) OnDrop(fn func()) {
	h.mu.Lock()
	h.onDrop = fn
	h.mu.Unlock()
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("client registered", "member_filter", c.memberID)
}

// Unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(msg.MemberID) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// slow reader, drop instead of blocking the publisher
			if h.onDrop != nil {
				h.onDrop()
			}
		}
	}
}

// Close disconnects every client. Their pumps exit once the send channels
// are closed.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
