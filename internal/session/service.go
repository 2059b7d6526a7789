// Package session runs the interview state machine: sessions are created ACTIVE with a greeting,
// advance through their questions one candidate turn at a time and end COMPLETED or ABANDONED.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vetting/interviewer/internal/evaluation"
	"vetting/interviewer/internal/events"
	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/prompts"
	"vetting/interviewer/internal/repositories"
)

const DefaultGuardrailStrikeLimit = 3

// Directory reads the candidate, interview and assignment records
type Directory interface {
	GetCandidateByPassKey(ctx context.Context, passKey string) (*models.Candidate, error)
	GetCandidate(ctx context.Context, id uint) (*models.Candidate, error)
	GetInterview(ctx context.Context, id uint) (*models.Interview, error)
	ListAssignments(ctx context.Context, interviewID uint) ([]models.InterviewQuestion, error)
}

type Store interface {
	Get(ctx context.Context, id string) (*models.InterviewSession, error)
	FindActive(ctx context.Context, candidateID, interviewID uint) (*models.InterviewSession, error)
	FindLatest(ctx context.Context, candidateID, interviewID uint) (*models.InterviewSession, error)
	Create(ctx context.Context, session *models.InterviewSession, first *models.InterviewQuestion) error
	CommitTurn(ctx context.Context, commit repositories.TurnCommit) error
}

type TurnPipeline interface {
	Run(ctx context.Context, in evaluation.TurnInput) (*evaluation.TurnOutcome, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, session *models.InterviewSession) (*models.CandidateReport, error)
}

// Deps are the collaborators of the Service. Events defaults to a Dummy publisher.
type Deps struct {
	Directory Directory
	Sessions  Store
	Pipeline  TurnPipeline
	Prompts   evaluation.PromptRenderer
	Reports   ReportGenerator
	Events    events.Publisher
}

type Config struct {
	GuardrailStrikeLimit int
	EndIntentKeywords    []string
	Now                  func() time.Time
}

type Service struct {
	directory Directory
	sessions  Store
	pipeline  TurnPipeline
	prompts   evaluation.PromptRenderer
	reports   ReportGenerator
	events    events.Publisher
	strikes   int
	endIntent intentDetector
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(deps Deps, cfg Config, logger *zap.Logger) *Service {
	if cfg.GuardrailStrikeLimit <= 0 {
		cfg.GuardrailStrikeLimit = DefaultGuardrailStrikeLimit
	}
	if cfg.EndIntentKeywords == nil {
		cfg.EndIntentKeywords = DefaultEndIntentKeywords
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if deps.Events == nil {
		deps.Events = &events.Dummy{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		directory: deps.Directory,
		sessions:  deps.Sessions,
		pipeline:  deps.Pipeline,
		prompts:   deps.Prompts,
		reports:   deps.Reports,
		events:    deps.Events,
		strikes:   cfg.GuardrailStrikeLimit,
		endIntent: newIntentDetector(cfg.EndIntentKeywords),
		now:       func() time.Time { return cfg.Now().UTC() },
		logger:    logger,
	}
}

// AuthResult identifies the candidate and the session they continue in
type AuthResult struct {
	CandidateID    uint
	CandidateName  string
	InterviewID    uint
	InterviewTitle string
	SessionID      string
	Session        *models.InterviewSession
}

// Authenticate resolves a pass key to the candidate's interview session. The open session is
// returned when there is one; a finished interview yields its last session instead of a new one.
func (s *Service) Authenticate(ctx context.Context, passKey string) (*AuthResult, error) {
	candidate, err := s.directory.GetCandidateByPassKey(ctx, passKey)
	if err != nil {
		return nil, err
	}
	if candidate.InterviewID == nil {
		return nil, fmt.Errorf("candidate %d has no assigned interview: %w", candidate.ID, ErrNotFound)
	}
	interview, err := s.directory.GetInterview(ctx, *candidate.InterviewID)
	if err != nil {
		return nil, err
	}

	session, err := s.Start(ctx, candidate.ID, interview.ID)
	if errors.Is(err, ErrInterviewClosed) {
		session, err = s.sessions.FindLatest(ctx, candidate.ID, interview.ID)
	}
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		CandidateID:    candidate.ID,
		CandidateName:  candidate.Name,
		InterviewID:    interview.ID,
		InterviewTitle: interview.Title,
		SessionID:      session.ID,
		Session:        session,
	}, nil
}

// Start returns the pair's ACTIVE session, creating it with the greeting when there is none.
// A pair whose interview was COMPLETED fails with ErrInterviewClosed.
func (s *Service) Start(ctx context.Context, candidateID, interviewID uint) (*models.InterviewSession, error) {
	candidate, err := s.directory.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.InterviewID == nil || *candidate.InterviewID != interviewID {
		return nil, fmt.Errorf("interview %d is not assigned to candidate %d: %w", interviewID, candidateID, ErrNotFound)
	}
	interview, err := s.directory.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	if active, err := s.sessions.FindActive(ctx, candidateID, interviewID); err == nil {
		return active, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	// a COMPLETED interview stays closed; an ABANDONED attempt is restarted from the first question
	if latest, err := s.sessions.FindLatest(ctx, candidateID, interviewID); err == nil {
		if latest.Status == models.SessionCompleted {
			return nil, ErrInterviewClosed
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	assignments, err := s.directory.ListAssignments(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("interview %d has no questions: %w", interviewID, ErrNotFound)
	}

	now := s.now()
	first := assignments[0]
	first.Status = models.QuestionAsked
	first.AskedAt = &now
	first.AnsweredAt = nil
	first.CandidateAnswer = ""
	first.AIAnalysis = nil

	key := models.ActiveSessionKey(candidateID, interviewID)
	session := &models.InterviewSession{
		ID:             uuid.NewString(),
		CandidateID:    candidateID,
		InterviewID:    interviewID,
		Status:         models.SessionActive,
		QuestionsAsked: 1,
		ActiveKey:      &key,
		StartedAt:      now,
		UpdatedAt:      now,
	}
	session.Append(models.ConversationEntry{
		Role:       models.RoleInterviewer,
		Content:    s.greeting(ctx, candidate, interview, assignments),
		Timestamp:  now,
		QuestionID: &first.ID,
	})

	if err := s.sessions.Create(ctx, session, &first); err != nil {
		if errors.Is(err, repositories.ErrActiveSessionExists) {
			return s.sessions.FindActive(ctx, candidateID, interviewID)
		}
		return nil, err
	}

	s.logger.Info("Interview session started",
		zap.String("session_id", session.ID),
		zap.Uint("candidate_id", candidateID),
		zap.Uint("interview_id", interviewID),
		zap.Int("questions", len(assignments)))
	return session, nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

func (s *Service) greeting(ctx context.Context, candidate *models.Candidate, interview *models.Interview, assignments []models.InterviewQuestion) string {
	data := prompts.GreetingContext{
		CandidateName:  candidate.Name,
		InterviewTitle: interview.Title,
		QuestionCount:  len(assignments),
		FirstQuestion:  assignments[0].Text,
	}
	if s.prompts != nil {
		text, err := s.prompts.RenderStage(ctx, prompts.StageGreeting, data)
		if err == nil {
			return text
		}
		s.logger.Warn("Greeting render failed, using plain greeting", zap.Error(err))
	}
	return fmt.Sprintf("Hello %s, welcome to the %s interview. %s", candidate.Name, interview.Title, assignments[0].Text)
}
