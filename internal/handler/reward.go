package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/points"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

type RewardHandler struct {
	store    *store.Store
	workflow *points.RedemptionWorkflow
	hub      Broadcaster
	logger   *slog.Logger
}

func NewRewardHandler(s *store.Store, wf *points.RedemptionWorkflow, hub Broadcaster, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{store: s, workflow: wf, hub: orNop(hub), logger: logger}
}

type rewardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
	Active      *bool  `json:"active"`
}

func (req *rewardRequest) validate(w http.ResponseWriter) bool {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return false
	}
	if req.Cost < 0 || req.Cost > points.MaxAmount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("cost must be between 0 and %d", points.MaxAmount))
		return false
	}
	return true
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	list := h.store.Rewards.List
	if r.URL.Query().Get("active") == "true" {
		list = h.store.Rewards.ListActive
	}
	rewards, err := list(r.Context())
	if err != nil {
		h.logger.Error("list rewards", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rewards":            rewards,
		"approval_threshold": h.workflow.Threshold(),
	})
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.validate(w) {
		return
	}

	in := model.RewardInput{
		Title:       req.Title,
		Description: req.Description,
		Cost:        req.Cost,
		Icon:        req.Icon,
		Category:    req.Category,
		Active:      req.Active == nil || *req.Active,
	}
	if in.Category == "" {
		in.Category = "other"
	}

	reward, err := h.store.Rewards.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("create reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reward")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("reward", "created", reward.ID, 0, nil))
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req rewardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.validate(w) {
		return
	}

	in := model.RewardInput{
		Title:       req.Title,
		Description: req.Description,
		Cost:        req.Cost,
		Icon:        req.Icon,
		Category:    req.Category,
		Active:      existing.Active,
	}
	if in.Category == "" {
		in.Category = existing.Category
	}
	if req.Active != nil {
		in.Active = *req.Active
	}

	reward, err := h.store.Rewards.Update(r.Context(), existing.ID, in)
	if err != nil {
		h.logger.Error("update reward", "reward_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("reward", "updated", reward.ID, 0, nil))
	writeJSON(w, http.StatusOK, reward)
}

// Delete keeps existing requests; their title and cost are snapshots.
func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.store.Rewards.Delete(r.Context(), existing.ID); err != nil {
		h.logger.Error("delete reward", "reward_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete reward")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("reward", "deleted", existing.ID, 0, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Redeem answers 200 when the purchase settled and 201 when it created a
// pending request.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	rewardID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		MemberID *int64 `json:"member_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MemberID == nil || *req.MemberID <= 0 {
		writeError(w, http.StatusBadRequest, "member_id is required")
		return
	}

	res, err := h.workflow.Redeem(r.Context(), *req.MemberID, rewardID)
	if err != nil {
		writeCoreError(w, r, h.logger, err, "failed to redeem reward")
		return
	}

	status := http.StatusOK
	if res.RequiresApproval {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (h *RewardHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Reward, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	reward, err := h.store.Rewards.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get reward", "reward_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return nil, false
	}
	if reward == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return nil, false
	}
	return reward, true
}
