package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError so the API has one
// body shape for success and one for failure.
//
// ERROR FORMAT:
//   {"error": "validation_error", "code": "INVALID_URL",
//    "message": "website must be a valid http(s) URL.", "field": "website"}
//
// "error" is the HTTP status class, "code" is the stable machine code the
// client branches on, and "field" names the offending input when there is one.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/cofounder-match/internal/apperror"
	"github.com/sakif/cofounder-match/internal/logging"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // status class, e.g. "not_found"
	Code    string `json:"code"`            // stable code, e.g. "PHOTO_REQUIRED"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input, if any
}

// IDResponse is returned by writes that identify the caller's profile.
type IDResponse struct {
	ID string `json:"id"`
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set before the body: once Encode writes,
// later header changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError maps a domain error to its HTTP status and sends it.
//
// ERROR MAPPING:
// The service layer knows nothing about HTTP. It returns AppErrors whose
// sentinel (Err) picks the status class here:
//
//	ErrValidation   → 400
//	ErrUnauthorized → 401
//	ErrForbidden    → 403
//	ErrNotFound     → 404
//	ErrConflict     → 409
//	ErrRateLimited  → 429
//
// Anything that is not an AppError is an internal failure: it is logged
// with the request logger and the client only sees a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logging.FromContext(r.Context(), slog.Default()).Error("request failed",
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Code:    "INTERNAL",
			Message: "An internal error occurred",
		})
		return
	}

	status, class := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, class = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, class = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, class = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status, class = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, class = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrRateLimited):
		status, class = http.StatusTooManyRequests, "rate_limited"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   class,
		Code:    appErr.Code,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads a size-limited JSON body into dst. A malformed body is
// an INVALID_ARGUMENT error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "Request body must be valid JSON.")
	}
	return nil
}
