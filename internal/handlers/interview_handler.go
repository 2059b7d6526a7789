package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vetting/interviewer/internal/middleware"
	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/session"
	"vetting/interviewer/internal/utils"
)

// InterviewService is the session API the candidate endpoints drive
type InterviewService interface {
	Authenticate(ctx context.Context, passKey string) (*session.AuthResult, error)
	Start(ctx context.Context, candidateID, interviewID uint) (*models.InterviewSession, error)
	Chat(ctx context.Context, sessionID, message string) (*session.TurnResult, error)
	End(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	Get(ctx context.Context, sessionID string) (*models.InterviewSession, error)
}

type TokenIssuer interface {
	Issue(sessionID string, candidateID, interviewID uint) (string, time.Time, error)
}

type InterviewHandler struct {
	service InterviewService
	tokens  TokenIssuer
	logger  *zap.Logger
}

func NewInterviewHandler(service InterviewService, tokens TokenIssuer, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		service: service,
		tokens:  tokens,
		logger:  logger,
	}
}

func (h *InterviewHandler) AuthHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.AuthRequest](r)

	result, err := h.service.Authenticate(r.Context(), req.PassKey)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	token, _, err := h.tokens.Issue(result.SessionID, result.CandidateID, result.InterviewID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.LoggerFrom(r.Context(), h.logger).Info("Candidate authenticated",
		zap.Uint("candidate_id", result.CandidateID),
		zap.String("session_id", result.SessionID))

	utils.JSON(w, http.StatusOK, models.AuthResponse{
		CandidateID:    result.CandidateID,
		CandidateName:  result.CandidateName,
		InterviewID:    result.InterviewID,
		InterviewTitle: result.InterviewTitle,
		SessionID:      result.SessionID,
		Token:          token,
	})
}

func (h *InterviewHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.StartSessionRequest](r)

	s, err := h.service.Start(r.Context(), req.CandidateID, req.InterviewID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

func (h *InterviewHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ChatRequest](r)
	sessionID := chi.URLParam(r, "session_id")

	result, err := h.service.Chat(r.Context(), sessionID, req.Message)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.JSON(w, http.StatusOK, models.ChatResponse{
		AssistantMessage:    result.Reply,
		SessionStatus:       result.Status,
		IsInterviewComplete: result.Complete,
	})
}

func (h *InterviewHandler) EndHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.End(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

func (h *InterviewHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, s)
}
