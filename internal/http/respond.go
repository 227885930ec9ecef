package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finbook/internal/analytics"
	"finbook/internal/auth"
	"finbook/internal/core"
	"finbook/internal/log"
	"finbook/internal/services"
	"finbook/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto HTTP status codes. Unknown
// errors become opaque 500s so internals never leak to clients.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrBadCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, analytics.ErrNotEnoughData):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err, log.FieldPath, r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// logInternalError records failures that happen after the response has
// started, where no error body can be sent anymore.
func logInternalError(r *http.Request, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed mid-response",
		log.FieldError, err, log.FieldPath, r.URL.Path)
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidKind,
		core.ErrInvalidFrequency,
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrEmptyCategory,
		core.ErrEmptyOwner,
		core.ErrEmptyName,
		auth.ErrWeakPassword,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
