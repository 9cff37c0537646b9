package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danasys/invoice-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

// statusClientClosedRequest is reported when the caller went away before the
// answer was ready. Nothing reaches the client; it shows up in access logs.
const statusClientClosedRequest = 499

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// statusForError maps domain errors to HTTP status codes.
// Upstream failures are matched before validation because a bad upstream
// payload carries its validation error inside ErrExternalService.
func statusForError(err error) int {
	var notFound *domain.ErrNotFound
	var invalidFormat *domain.ErrInvalidFormat
	var external *domain.ErrExternalService
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalidFormat):
		return http.StatusBadRequest
	case errors.As(err, &external):
		return http.StatusBadGateway
	case errors.As(err, &circuitOpen):
		return http.StatusServiceUnavailable
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	}
	return http.StatusInternalServerError
}

func logServiceError(logger *zap.Logger, status int, err error) {
	switch {
	case status >= 500:
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	default:
		logger.Debug("request rejected", zap.Int("status", status), zap.String("error", err.Error()))
	}
}

// handleServiceError maps domain errors to JSON error responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := statusForError(err)
	logServiceError(logger, status, err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeError(w, status, msg)
}

// handleDownloadError maps domain errors to a status with an empty body, so a
// failed download never carries partial document bytes.
func handleDownloadError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := statusForError(err)
	logServiceError(logger, status, err)
	w.WriteHeader(status)
}
