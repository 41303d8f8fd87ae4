package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreboard/internal/notify"
	"github.com/dukerupert/choreboard/internal/store"
)

type PushHandler struct {
	store  *store.Store
	sender *notify.PushSender
	logger *slog.Logger
}

// NewPushHandler accepts a nil sender when VAPID keys are not configured;
// subscriptions are still stored.
func NewPushHandler(s *store.Store, sender *notify.PushSender, logger *slog.Logger) *PushHandler {
	return &PushHandler{store: s, sender: sender, logger: logger}
}

type subscribeRequest struct {
	MemberID *int64 `json:"member_id"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	if req.MemberID != nil {
		m, err := h.store.Members.GetByID(r.Context(), *req.MemberID)
		if err != nil {
			h.logger.Error("get member", "member_id", *req.MemberID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save subscription")
			return
		}
		if m == nil {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
	}

	sub, err := h.store.Push.Upsert(r.Context(), req.MemberID, req.Endpoint, req.P256dh, req.Auth, r.UserAgent())
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	sub, err := h.store.Push.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get push subscription", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}

	if err := h.store.Push.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete push subscription", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.sender == nil {
		writeError(w, http.StatusNotFound, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.sender.VAPIDPublicKey()})
}
