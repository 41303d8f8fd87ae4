package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

const (
	defaultColor  = "#3B82F6"
	defaultAvatar = "😀"
)

type MemberHandler struct {
	store  *store.Store
	hub    Broadcaster
	logger *slog.Logger
}

func NewMemberHandler(s *store.Store, hub Broadcaster, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{store: s, hub: orNop(hub), logger: logger}
}

type memberRequest struct {
	Name        string     `json:"name"`
	Role        model.Role `json:"role"`
	Color       string     `json:"color"`
	AvatarEmoji string     `json:"avatar_emoji"`
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.Members.List(r.Context())
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.validate(w, r, &req, nil) {
		return
	}

	member, err := h.store.Members.Create(r.Context(), req.Name, req.Role, req.Color, req.AvatarEmoji)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("member", "created", member.ID, member.ID, nil))
	writeJSON(w, http.StatusCreated, member)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.validate(w, r, &req, existing) {
		return
	}

	member, err := h.store.Members.Update(r.Context(), existing.ID, req.Name, req.Role, req.Color, req.AvatarEmoji)
	if err != nil {
		h.logger.Error("update member", "member_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("member", "updated", member.ID, member.ID, nil))
	writeJSON(w, http.StatusOK, member)
}

// Delete cascades to the member's tasks, requests, punishments and push
// subscriptions. Audit entries stay with their name snapshot.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.store.Members.Delete(r.Context(), existing.ID); err != nil {
		h.logger.Error("delete member", "member_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}

	h.logger.Info("member deleted", "member_id", existing.ID, "name", existing.Name)
	h.hub.Broadcast(websocket.NewMessage("member", "deleted", existing.ID, 0, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *MemberHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.PIN) != 4 || !isDigits(req.PIN) {
		writeError(w, http.StatusBadRequest, "PIN must be exactly 4 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash PIN")
		return
	}
	if err := h.store.Members.SetPIN(r.Context(), existing.ID, string(hash)); err != nil {
		h.logger.Error("set pin", "member_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "pin set"})
}

func (h *MemberHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.store.Members.ClearPIN(r.Context(), existing.ID); err != nil {
		h.logger.Error("clear pin", "member_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "pin cleared"})
}

// VerifyPIN answers {"valid": bool}. A member without a PIN always
// verifies.
func (h *MemberHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	valid, err := checkPIN(r, h.store, existing.ID, req.PIN)
	if err != nil {
		h.logger.Error("verify pin", "member_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to verify PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func checkPIN(r *http.Request, s *store.Store, memberID int64, pin string) (bool, error) {
	hash, err := s.Members.GetPINHash(r.Context(), memberID)
	if err != nil {
		return false, err
	}
	if hash == "" {
		return true, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil, nil
}

func (h *MemberHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Member, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	m, err := h.store.Members.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return nil, false
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return nil, false
	}
	return m, true
}

// validate normalises req in place, filling blanks from existing (update)
// or defaults (create).
func (h *MemberHandler) validate(w http.ResponseWriter, r *http.Request, req *memberRequest, existing *model.Member) bool {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return false
	}

	if existing != nil {
		if req.Role == "" {
			req.Role = existing.Role
		}
		if req.Color == "" {
			req.Color = existing.Color
		}
		if req.AvatarEmoji == "" {
			req.AvatarEmoji = existing.AvatarEmoji
		}
	} else {
		if req.Role == "" {
			req.Role = model.RoleChild
		}
		if req.Color == "" {
			req.Color = defaultColor
		}
		if req.AvatarEmoji == "" {
			req.AvatarEmoji = defaultAvatar
		}
	}

	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be one of Child, Adult, Guest, Staff, Other")
		return false
	}
	if !hexColorRegexp.MatchString(req.Color) {
		writeError(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return false
	}

	var excludeID int64
	if existing != nil {
		excludeID = existing.ID
	}
	exists, err := h.store.Members.NameExists(r.Context(), req.Name, excludeID)
	if err != nil {
		h.logger.Error("check member name", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check name")
		return false
	}
	if exists {
		writeError(w, http.StatusConflict, "a member with that name already exists")
		return false
	}
	return true
}
