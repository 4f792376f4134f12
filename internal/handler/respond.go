package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/scaffold/internal/i18n"
	"github.com/pavelanni/scaffold/internal/llm"
	"github.com/pavelanni/scaffold/internal/progress"
	"github.com/pavelanni/scaffold/internal/store"
	"github.com/pavelanni/scaffold/internal/study"
)

var validate = validator.New()

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks request bodies that cannot be decoded or validated.
var errBadRequest = errors.New("bad request")

// errorMapping ties sentinel errors to a status and a message ID. The first
// match wins, so wrapping errors come before their causes.
var errorMapping = []struct {
	err    error
	status int
	msgID  string
}{
	{errBadRequest, http.StatusBadRequest, "ErrBadRequest"},
	{study.ErrSessionNotFound, http.StatusNotFound, "ErrSessionNotFound"},
	{study.ErrSessionLoading, http.StatusConflict, "ErrSessionLoading"},
	{study.ErrPayloadMissing, http.StatusUnprocessableEntity, "ErrPayloadMissing"},
	{study.ErrInvalidTransition, http.StatusConflict, "ErrInvalidAction"},
	{study.ErrInvalidStep, http.StatusBadRequest, "ErrInvalidAction"},
	{study.ErrInactiveInstance, http.StatusConflict, "ErrInactiveBlank"},
	{study.ErrUnknownInstance, http.StatusNotFound, "ErrUnknownBlank"},
	{study.ErrInvalidHint, http.StatusBadRequest, "ErrInvalidHint"},
	{llm.ErrUsageLimit, http.StatusTooManyRequests, "ErrUsageLimit"},
	{store.ErrQuotaExceeded, http.StatusTooManyRequests, "ErrUsageLimit"},
	{llm.ErrInvalidCrop, http.StatusUnprocessableEntity, "ErrInvalidCrop"},
	{llm.ErrEmptyExtraction, http.StatusUnprocessableEntity, "ErrPayloadMissing"},
	{store.ErrNotFound, http.StatusNotFound, "ErrQuizNotFound"},
	{progress.ErrAlreadyCheckedIn, http.StatusConflict, "ErrAlreadyCheckedIn"},
}

func classify(err error) (int, string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.status, m.msgID
		}
	}
	return http.StatusInternalServerError, "ErrInternal"
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a localized error message. The raw error only goes to
// the log.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msgID := classify(err)
	level := slog.LevelDebug
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status == http.StatusTooManyRequests:
		level = slog.LevelWarn
	}
	slog.Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err)
	respondJSON(w, status, errorResponse{Error: i18n.T(r.Context(), msgID)})
}

// decodeJSON reads and validates a JSON request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
