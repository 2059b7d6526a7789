package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"vetting/interviewer/internal/prompts"
	"vetting/interviewer/internal/session"
	"vetting/interviewer/internal/utils"
)

// writeServiceError maps domain errors onto HTTP statuses. Unexpected errors are logged and
// answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, session.ErrSessionNotActive):
		utils.Error(w, http.StatusConflict, "session_not_active", "Interview session is no longer active")
	case errors.Is(err, session.ErrInterviewClosed):
		utils.Error(w, http.StatusConflict, "interview_closed", "Interview has already been taken")
	case errors.Is(err, session.ErrInconsistentState):
		utils.Error(w, http.StatusConflict, "concurrent_update", "Session changed while the request was processed, retry")
	case errors.Is(err, session.ErrEmptyMessage):
		utils.Error(w, http.StatusBadRequest, "missing_message", "message is required")
	case errors.Is(err, prompts.ErrUnknownStage):
		utils.Error(w, http.StatusNotFound, "unknown_stage", err.Error())
	case errors.Is(err, prompts.ErrInvalidTemplate):
		utils.Error(w, http.StatusBadRequest, "invalid_template", err.Error())
	default:
		utils.LoggerFrom(r.Context(), logger).Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
