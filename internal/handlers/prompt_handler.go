package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vetting/interviewer/internal/middleware"
	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/prompts"
	"vetting/interviewer/internal/utils"
)

// PromptAdmin reads and replaces per-stage prompt text
type PromptAdmin interface {
	Describe(ctx context.Context, stage prompts.Stage) (*prompts.Resolved, error)
	SaveOverride(ctx context.Context, stage prompts.Stage, content string, isActive bool, editedBy string) (*models.PromptTemplate, error)
}

type PromptHandler struct {
	prompts PromptAdmin
	logger  *zap.Logger
}

func NewPromptHandler(admin PromptAdmin, logger *zap.Logger) *PromptHandler {
	return &PromptHandler{prompts: admin, logger: logger}
}

func (h *PromptHandler) GetPromptHandler(w http.ResponseWriter, r *http.Request) {
	stage, err := prompts.ParseStage(chi.URLParam(r, "stage"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	resolved, err := h.prompts.Describe(r.Context(), stage)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, resolved)
}

// UpdatePromptHandler stores an override; it is active unless is_active is false
func (h *PromptHandler) UpdatePromptHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.PromptUpdateRequest](r)
	stage, err := prompts.ParseStage(chi.URLParam(r, "stage"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	active := req.IsActive == nil || *req.IsActive
	saved, err := h.prompts.SaveOverride(r.Context(), stage, req.Content, active, req.EditedBy)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, saved)
}
