package handler

// RESPONSE HELPERS:
// Every error leaving this API has the same JSON shape:
//
//	{"error": "validation_error", "message": "date is required"}
//
// The mapping from domain errors to HTTP statuses lives here and only here.
// Services return apperror values; they never know about HTTP.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rahat/quickcal/internal/apperror"
)

// ErrorResponse is the standard error body returned by all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind, e.g. "validation_error"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response. Headers and status must go out before the
// body — once Encode writes, the headers are already on the wire.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// Auth failures are 401, validation 400, incomplete OCR 422, everything
// else — including every provider failure — a generic 500. Raw internal
// error text never reaches the client: it can contain SQL, tokens, or
// provider URLs.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrInvalidToken):
			status = http.StatusUnauthorized
			errorType = "invalid_token"
		case errors.Is(err, apperror.ErrNotLinked):
			status = http.StatusUnauthorized
			errorType = "not_authenticated"
		case errors.Is(err, apperror.ErrExtraction):
			status = http.StatusUnprocessableEntity
			errorType = "extraction_incomplete"
		case errors.Is(err, apperror.ErrConfiguration):
			errorType = "configuration_error"
		case errors.Is(err, apperror.ErrAuthExchange):
			errorType = "auth_exchange_failed"
		case errors.Is(err, apperror.ErrProvider):
			errorType = "provider_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
