package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response with the given status code.
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

// writeServiceError maps an engine error to its status code and user-facing message.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode := apperrors.Status(err)
	logger := contextutil.LoggerFromContext(ctx)
	if statusCode >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "error", err, "status", statusCode)
	} else {
		logger.WarnContext(ctx, "request rejected", "error", err, "status", statusCode)
	}
	writeError(w, statusCode, apperrors.Message(err))
}
