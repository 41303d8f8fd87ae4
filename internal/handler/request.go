package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/points"
	"github.com/dukerupert/choreboard/internal/store"
)

type RequestHandler struct {
	store    *store.Store
	workflow *points.RedemptionWorkflow
	logger   *slog.Logger
}

func NewRequestHandler(s *store.Store, wf *points.RedemptionWorkflow, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{store: s, workflow: wf, logger: logger}
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.RequestStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be pending, approved or denied")
		return
	}

	requests, err := h.store.Requests.List(r.Context(), status)
	if err != nil {
		h.logger.Error("list reward requests", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reward requests")
		return
	}
	if requests == nil {
		requests = []model.RewardRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	req, err := h.store.Requests.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get reward request", "request_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get reward request")
		return
	}
	if req == nil {
		writeError(w, http.StatusNotFound, "reward request not found")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Process approves or denies a pending request. The approver must be an
// Adult and, if they have a PIN, supply it.
func (h *RequestHandler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Approve    *bool  `json:"approve"`
		ApproverID int64  `json:"approver_id"`
		PIN        string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Approve == nil {
		writeError(w, http.StatusBadRequest, "approve is required")
		return
	}
	if req.ApproverID <= 0 {
		writeError(w, http.StatusBadRequest, "approver_id is required")
		return
	}

	approver, err := h.store.Members.GetByID(r.Context(), req.ApproverID)
	if err != nil {
		h.logger.Error("get approver", "member_id", req.ApproverID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get approver")
		return
	}
	if approver == nil || approver.Role != model.RoleAdult {
		writeError(w, http.StatusForbidden, "only an adult can process reward requests")
		return
	}
	ok, err := checkPIN(r, h.store, approver.ID, req.PIN)
	if err != nil {
		h.logger.Error("check approver pin", "member_id", approver.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to verify PIN")
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "incorrect PIN")
		return
	}

	out, err := h.workflow.ProcessRequest(r.Context(), id, *req.Approve)
	if err != nil {
		writeCoreError(w, r, h.logger, err, "failed to process reward request")
		return
	}

	h.logger.Info("reward request processed", "request_id", id, "approver_id", approver.ID, "status", string(out.Status))
	writeJSON(w, http.StatusOK, out)
}
