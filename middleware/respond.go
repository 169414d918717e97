package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"recipe_backend/apperrors"
	"recipe_backend/models"
)

// WriteJSON writes v as the JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "type", "http", "error", err)
	}
}

// WriteError writes err as an ErrorResponse. Errors without a
// StructuredError in their chain are logged and reported as INTERNAL
// without their text.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	resp := models.ErrorResponse{
		Code:      string(apperrors.ErrCodeInternal),
		Message:   "Internal server error",
		RequestID: RequestID(r.Context()),
		Timestamp: time.Now().UTC(),
	}

	var se *apperrors.StructuredError
	if errors.As(err, &se) {
		resp.Code = string(se.Code)
		resp.Message = se.Message
		resp.Details = se.Context
	}

	status := apperrors.HTTPStatus(apperrors.ErrorCode(resp.Code))
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"type", "http",
			"requestID", resp.RequestID,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	WriteJSON(w, status, resp)
}
