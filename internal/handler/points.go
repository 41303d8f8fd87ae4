package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/points"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// PointsHandler serves manual adjustments, punishments, the leaderboard,
// the audit feed and the on-demand recurrence reset.
type PointsHandler struct {
	store  *store.Store
	ledger *points.Ledger
	resets *points.ResetScheduler
	hub    Broadcaster
	logger *slog.Logger
}

func NewPointsHandler(s *store.Store, ledger *points.Ledger, resets *points.ResetScheduler, hub Broadcaster, logger *slog.Logger) *PointsHandler {
	return &PointsHandler{store: s, ledger: ledger, resets: resets, hub: orNop(hub), logger: logger}
}

func (h *PointsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Amount *int   `json:"amount"`
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Amount != nil && (*req.Amount > points.MaxAmount || *req.Amount < -points.MaxAmount) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("amount must be between -%d and %d", points.MaxAmount, points.MaxAmount))
		return
	}

	balance, err := h.ledger.AdjustPoints(r.Context(), id, req.Amount, req.Reason)
	if err != nil {
		writeCoreError(w, r, h.logger, err, "failed to adjust points")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"member_id": id, "points": balance})
}

func (h *PointsHandler) Punish(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Points int    `json:"points"`
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Points > points.MaxAmount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("points must be at most %d", points.MaxAmount))
		return
	}

	p, balance, err := h.ledger.Punish(r.Context(), id, req.Points, req.Reason)
	if err != nil {
		writeCoreError(w, r, h.logger, err, "failed to record punishment")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"punishment": p, "points": balance})
}

func (h *PointsHandler) ListPunishments(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	m, err := h.store.Members.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	list, err := h.store.Punishments.ListByMember(r.Context(), id)
	if err != nil {
		h.logger.Error("list punishments", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list punishments")
		return
	}
	if list == nil {
		list = []model.Punishment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PointsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.store.Members.Leaderboard(r.Context())
	if err != nil {
		h.logger.Error("leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	if board == nil {
		board = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, board)
}

// AuditLog accepts ?limit= (default 50, capped at 500) and ?member_id=.
func (h *PointsHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultAuditLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAuditLimit)
	}

	var memberID int64
	if v := q.Get("member_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid member_id")
			return
		}
		memberID = n
	}

	entries, err := h.store.Audit.List(r.Context(), memberID, limit)
	if err != nil {
		h.logger.Error("list audit log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list audit log")
		return
	}
	if entries == nil {
		entries = []model.AuditLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Reset runs the recurrence reset for the current household day.
func (h *PointsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	n, err := h.resets.RunNow(r.Context())
	if err != nil {
		writeCoreError(w, r, h.logger, err, "failed to reset tasks")
		return
	}
	if n > 0 {
		h.hub.Broadcast(websocket.NewMessage("task", "reset", 0, 0, map[string]int{"reset": n}))
	}
	writeJSON(w, http.StatusOK, map[string]int{"reset": n})
}
