package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/choreboard/internal/chore"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/points"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

type TaskHandler struct {
	store  *store.Store
	engine *points.TaskEngine
	hub    Broadcaster
	clock  Clock
	logger *slog.Logger
}

func NewTaskHandler(s *store.Store, engine *points.TaskEngine, hub Broadcaster, clock Clock, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{store: s, engine: engine, hub: orNop(hub), clock: clock, logger: logger}
}

type taskRequest struct {
	MemberID   int64            `json:"member_id"`
	Title      string           `json:"title"`
	Points     int              `json:"points"`
	Category   model.Category   `json:"category"`
	Recurrence model.Recurrence `json:"recurrence"`
	StartTime  *string          `json:"start_time"`
	EndTime    *string          `json:"end_time"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.Tasks.List(r.Context())
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, chore.WithStatus(tasks, h.clock()))
}

func (h *TaskHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
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

	tasks, err := h.store.Tasks.ListByMember(r.Context(), id)
	if err != nil {
		h.logger.Error("list member tasks", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, chore.WithStatus(tasks, h.clock()))
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.validate(w, r, &req) {
		return
	}

	task, err := h.store.Tasks.Create(r.Context(), req.input())
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("task", "created", task.ID, task.MemberID, nil))
	writeJSON(w, http.StatusCreated, task)
}

// Update edits the definition only; completion state is left alone.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MemberID == 0 {
		req.MemberID = existing.MemberID
	}
	if req.Category == "" {
		req.Category = existing.Category
	}
	if req.Recurrence == "" {
		req.Recurrence = existing.Recurrence
	}
	if !h.validate(w, r, &req) {
		return
	}

	task, err := h.store.Tasks.Update(r.Context(), existing.ID, req.input())
	if err != nil {
		h.logger.Error("update task", "task_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("task", "updated", task.ID, task.MemberID, nil))
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.store.Tasks.Delete(r.Context(), existing.ID); err != nil {
		h.logger.Error("delete task", "task_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("task", "deleted", existing.ID, existing.MemberID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Toggle flips completion for the member that owns the task.
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	memberID, err := parsePathID(r, "member_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	taskID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	res, err := h.engine.Toggle(r.Context(), memberID, taskID)
	if err != nil {
		writeCoreError(w, r, h.logger, err, "failed to toggle task")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TaskHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Task, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	t, err := h.store.Tasks.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get task", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return nil, false
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return t, true
}

func (h *TaskHandler) validate(w http.ResponseWriter, r *http.Request, req *taskRequest) bool {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return false
	}
	if req.Points < 0 || req.Points > points.MaxAmount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("points must be between 0 and %d", points.MaxAmount))
		return false
	}
	if req.Category == "" {
		req.Category = model.CategoryChore
	}
	if !req.Category.Valid() {
		writeError(w, http.StatusBadRequest, "invalid category")
		return false
	}
	if req.Recurrence == "" {
		req.Recurrence = model.RecurrenceNone
	}
	if !req.Recurrence.Valid() {
		writeError(w, http.StatusBadRequest, "recurrence must be one of none, daily, weekdays, weekends, weekly")
		return false
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		writeError(w, http.StatusBadRequest, "start_time and end_time must be HH:MM")
		return false
	}
	req.StartTime, req.EndTime = emptyToNil(req.StartTime), emptyToNil(req.EndTime)

	if req.MemberID <= 0 {
		writeError(w, http.StatusBadRequest, "member_id is required")
		return false
	}
	m, err := h.store.Members.GetByID(r.Context(), req.MemberID)
	if err != nil {
		h.logger.Error("get member", "member_id", req.MemberID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return false
	}
	if m == nil {
		writeError(w, http.StatusBadRequest, "member not found")
		return false
	}
	return true
}

func (req taskRequest) input() model.TaskInput {
	return model.TaskInput{
		MemberID:   req.MemberID,
		Title:      req.Title,
		Points:     req.Points,
		Category:   req.Category,
		Recurrence: req.Recurrence,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
}
