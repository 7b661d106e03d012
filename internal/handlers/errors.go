package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"textsearch/internal/contextutil"
	"textsearch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// serviceErrorStatus maps a service error to an HTTP status and message.
func serviceErrorStatus(err error, defaultMsg string) (int, string) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Error()
	}

	// Check for wrapped errors
	if errors.Is(err, service.ErrInvalidInput) {
		return http.StatusBadRequest, "Invalid search query"
	}

	if errors.Is(err, service.ErrNotFound) {
		return http.StatusNotFound, "Not found"
	}

	if errors.Is(err, service.ErrUnavailable) {
		return http.StatusServiceUnavailable, "Index unavailable"
	}

	// Default to internal server error
	return http.StatusInternalServerError, defaultMsg
}

// handleServiceError logs err and writes the matching JSON error response.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	status, msg := serviceErrorStatus(err, defaultMsg)
	logger := contextutil.LoggerFromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "service error", "error", err)
	} else {
		logger.WarnContext(ctx, "request rejected", "status", status, "error", err)
	}
	writeError(w, status, msg)
}
