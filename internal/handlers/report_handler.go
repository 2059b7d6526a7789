package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/utils"
)

type ReportLookup interface {
	GetByCandidate(ctx context.Context, candidateID uint) (*models.CandidateReport, error)
}

type ReportHandler struct {
	reports ReportLookup
	logger  *zap.Logger
}

func NewReportHandler(reports ReportLookup, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

func (h *ReportHandler) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	candidateID, err := strconv.ParseUint(chi.URLParam(r, "candidate_id"), 10, 64)
	if err != nil || candidateID == 0 {
		utils.Error(w, http.StatusBadRequest, "invalid_candidate_id", "candidate_id must be a positive integer")
		return
	}

	report, err := h.reports.GetByCandidate(r.Context(), uint(candidateID))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}
