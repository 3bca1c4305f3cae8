package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/socialchef/larder/internal/errors"
	"github.com/socialchef/larder/internal/logger"
	"github.com/socialchef/larder/internal/sentry"
	"github.com/socialchef/larder/internal/session"
)

// ErrorResponse is the body of every failed request. Error is safe to show
// to users; the cause is only logged.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusOf(err)
	code := errorCode(err)

	attrs := []any{
		"path", r.URL.Path,
		"status", status,
		"code", code,
		"error", err,
		logger.WithTraceContext(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", attrs...)
		sentry.CaptureError(r.Context(), err)
	} else {
		slog.WarnContext(r.Context(), "Request rejected", attrs...)
	}

	writeJSON(w, status, ErrorResponse{Error: apperrors.UserMessage(err), Code: code})
}

func errorCode(err error) string {
	if appErr, ok := apperrors.As(err); ok && appErr.Code() != "" {
		return appErr.Code()
	}
	return string(apperrors.TypeOf(err))
}

// sessionError maps session state errors onto the API taxonomy.
func sessionError(err error, min int) error {
	switch {
	case errors.Is(err, session.ErrNotReady):
		return tooFewIngredients(min)
	case errors.Is(err, session.ErrBusy):
		return &apperrors.AppError{
			Type:          apperrors.ErrorTypeValidation,
			Message:       "A generation is already running",
			StatusCode:    http.StatusConflict,
			ErrorCode:     "GENERATION_IN_PROGRESS",
			IsOperational: true,
			Err:           err,
		}
	default:
		return err
	}
}

func tooFewIngredients(min int) error {
	return apperrors.NewValidationError(
		fmt.Sprintf("Enter %d or more ingredients", min),
		"TOO_FEW_INGREDIENTS",
		"Separate ingredients with commas.",
	)
}

func invalidBody(err error) error {
	appErr := apperrors.NewValidationError("Invalid request body", "INVALID_BODY", "")
	appErr.Err = err
	return appErr
}

func unauthorized() error {
	return &apperrors.AppError{
		Type:          apperrors.ErrorTypeValidation,
		Message:       "Unauthorized",
		StatusCode:    http.StatusUnauthorized,
		ErrorCode:     "UNAUTHORIZED",
		IsOperational: true,
	}
}

func queueDisabled() error {
	return &apperrors.AppError{
		Type:       apperrors.ErrorTypeInternal,
		Message:    "Background jobs are not configured",
		StatusCode: http.StatusServiceUnavailable,
		ErrorCode:  "JOBS_DISABLED",
	}
}
