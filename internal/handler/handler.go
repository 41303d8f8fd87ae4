// Package handler implements the JSON API. Core error kinds map to
// statuses here: not found 404, insufficient points and invalid input 400,
// already processed 409.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/dukerupert/choreboard/internal/points"
	"github.com/dukerupert/choreboard/internal/websocket"
)

var (
	hexColorRegexp  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	clockTimeRegexp = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

const maxBodyBytes = 1 << 20

// Broadcaster is satisfied by *websocket.Hub.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(websocket.Message) {}

// Clock returns the current time in the household's location.
type Clock func() time.Time

func orNop(b Broadcaster) Broadcaster {
	if b == nil {
		return nopBroadcaster{}
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeCoreError translates a points error. Anything unrecognised is
// logged and reported as a 500 with a generic message.
func writeCoreError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, failMsg string) {
	switch {
	case errors.Is(err, points.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, points.ErrInsufficientPoints), errors.Is(err, points.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, points.ErrAlreadyProcessed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), failMsg, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, failMsg)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func parseIDParam(r *http.Request) (int64, error) {
	return parsePathID(r, "id")
}

func parsePathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func validClock(s *string) bool {
	return s == nil || *s == "" || clockTimeRegexp.MatchString(*s)
}

// emptyToNil turns "" into nil so optional clock times are stored as NULL.
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
