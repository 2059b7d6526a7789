package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"vetting/interviewer/internal/evaluation"
	"vetting/interviewer/internal/metrics"
	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/repositories"
)

const abandonedMessage = "We are unable to continue this interview. Thank you for your time."

// TurnResult is the interviewer's answer to one candidate message
type TurnResult struct {
	Reply    string
	Complete bool
	Status   models.SessionStatus
}

// turnAnalysis is stored as ai_analysis on the question a turn addressed
type turnAnalysis struct {
	FullyAnswered         bool               `json:"fully_answered"`
	Reasoning             string             `json:"reasoning"`
	CanContinue           bool               `json:"can_continue"`
	GuardrailReason       string             `json:"guardrail_reason,omitempty"`
	ReplyReasoning        string             `json:"reply_reasoning,omitempty"`
	WasQuestionAnswered   bool               `json:"was_question_answered"`
	AnsweredQuestionIndex int                `json:"answered_question_index"`
	Degraded              []evaluation.Stage `json:"degraded,omitempty"`
	EvaluatedAt           time.Time          `json:"evaluated_at"`
}

// turnState is a session loaded for a turn together with its ordered questions
type turnState struct {
	session     *models.InterviewSession
	assignments []models.InterviewQuestion
}

// Chat is ProcessTurn under the name the transport layer uses
func (s *Service) Chat(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	return s.ProcessTurn(ctx, sessionID, message)
}

// ProcessTurn records a candidate message, runs the evaluation pipeline and moves the session
// on according to the question's importance. All writes of the turn land in one commit.
func (s *Service) ProcessTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	st, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := st.session
	if !session.IsActive() {
		return nil, ErrSessionNotActive
	}

	index := session.CurrentQuestionIndex
	if index >= len(st.assignments) {
		return nil, fmt.Errorf("session %s is active past its last question: %w", session.ID, ErrInconsistentState)
	}
	current := st.assignments[index]

	now := s.now()
	session.Append(models.ConversationEntry{Role: models.RoleCandidate, Content: text, Timestamp: now, QuestionID: &current.ID})
	session.UpdatedAt = now
	current.CandidateAnswer = appendAnswer(current.CandidateAnswer, text)

	if s.endIntent.wantsToEnd(text) {
		session.Append(models.ConversationEntry{Role: models.RoleInterviewer, Content: evaluation.ClosingMessage, Timestamp: now})
		if err := s.complete(ctx, session, []*models.InterviewQuestion{&current}, now, "candidate_request"); err != nil {
			return nil, err
		}
		metrics.TurnProcessed("end_intent")
		return &TurnResult{Reply: evaluation.ClosingMessage, Complete: true, Status: session.Status}, nil
	}

	in := evaluation.TurnInput{
		RequestID:        fmt.Sprintf("%s-%d", session.ID, session.TotalMessages),
		Transcript:       models.Transcript(session.ConversationHistory),
		CandidateMessage: text,
		CurrentIndex:     index,
		Question:         current,
	}
	if index+1 < len(st.assignments) {
		in.Next = &st.assignments[index+1]
	}

	outcome, err := s.pipeline.Run(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("process turn for session %s: %w", session.ID, err)
	}
	current.AIAnalysis = analysisJSON(outcome, now)

	if outcome.Blocked {
		return s.holdBlocked(ctx, session, &current, outcome, now)
	}

	updated := []*models.InterviewQuestion{&current}
	replyQuestion := &current.ID
	action := "hold"

	if outcome.Decision.Advance {
		current.Status = models.QuestionAnswered
		current.AnsweredAt = &now
		session.CurrentQuestionIndex++
		action = "advance"

		if in.Next != nil {
			next := *in.Next
			next.Status = models.QuestionAsked
			next.AskedAt = &now
			session.QuestionsAsked++
			updated = append(updated, &next)
			replyQuestion = &next.ID
		} else {
			replyQuestion = nil
			action = "complete"
		}
	}

	session.Append(models.ConversationEntry{
		Role:       models.RoleInterviewer,
		Content:    outcome.Reply.ResponseText,
		Timestamp:  now,
		QuestionID: replyQuestion,
	})

	if action == "complete" {
		if err := s.complete(ctx, session, updated, now, "all_questions_answered"); err != nil {
			return nil, err
		}
	} else if err := s.sessions.CommitTurn(ctx, repositories.TurnCommit{Session: session, Questions: updated}); err != nil {
		return nil, err
	}

	metrics.TurnProcessed(action)
	s.logger.Info("Turn processed",
		zap.String("session_id", session.ID),
		zap.String("action", action),
		zap.Int("question_index", session.CurrentQuestionIndex),
		zap.Bool("fully_answered", outcome.Evaluation.FullyAnswered),
		zap.Int("degraded_stages", len(outcome.Degraded)))

	return &TurnResult{
		Reply:    outcome.Reply.ResponseText,
		Complete: session.Status == models.SessionCompleted,
		Status:   session.Status,
	}, nil
}

// holdBlocked answers a message the guardrails rejected. The question is held and a strike is
// counted; reaching the strike limit abandons the session.
func (s *Service) holdBlocked(ctx context.Context, session *models.InterviewSession, current *models.InterviewQuestion, outcome *evaluation.TurnOutcome, now time.Time) (*TurnResult, error) {
	session.GuardrailStrikes++

	if session.GuardrailStrikes >= s.strikes {
		session.Append(models.ConversationEntry{Role: models.RoleInterviewer, Content: abandonedMessage, Timestamp: now})
		if err := s.abandon(ctx, session, []*models.InterviewQuestion{current}, now, "guardrail_strikes"); err != nil {
			return nil, err
		}
		metrics.TurnProcessed("abandoned")
		return &TurnResult{Reply: abandonedMessage, Status: session.Status}, nil
	}

	session.Append(models.ConversationEntry{
		Role:       models.RoleInterviewer,
		Content:    outcome.Reply.ResponseText,
		Timestamp:  now,
		QuestionID: &current.ID,
	})
	commit := repositories.TurnCommit{Session: session, Questions: []*models.InterviewQuestion{current}}
	if err := s.sessions.CommitTurn(ctx, commit); err != nil {
		return nil, err
	}

	metrics.TurnProcessed("blocked")
	s.logger.Warn("Candidate message blocked by guardrails",
		zap.String("session_id", session.ID),
		zap.Int("strikes", session.GuardrailStrikes),
		zap.String("reason", outcome.Guardrail.Reason))
	return &TurnResult{Reply: outcome.Reply.ResponseText, Status: session.Status}, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*turnState, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.directory.GetCandidate(ctx, session.CandidateID); err != nil {
		return nil, err
	}
	if _, err := s.directory.GetInterview(ctx, session.InterviewID); err != nil {
		return nil, err
	}
	assignments, err := s.directory.ListAssignments(ctx, session.InterviewID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("interview %d has no questions: %w", session.InterviewID, ErrNotFound)
	}
	return &turnState{session: session, assignments: assignments}, nil
}

func appendAnswer(existing, text string) string {
	if existing == "" {
		return text
	}
	return existing + "\n\n" + text
}

func analysisJSON(outcome *evaluation.TurnOutcome, now time.Time) datatypes.JSON {
	raw, err := json.Marshal(turnAnalysis{
		FullyAnswered:         outcome.Evaluation.FullyAnswered,
		Reasoning:             outcome.Evaluation.Reasoning,
		CanContinue:           outcome.Guardrail.CanContinue,
		GuardrailReason:       outcome.Guardrail.Reason,
		ReplyReasoning:        outcome.Reply.Reasoning,
		WasQuestionAnswered:   outcome.Reply.WasQuestionAnswered,
		AnsweredQuestionIndex: outcome.Reply.AnsweredQuestionIndex,
		Degraded:              outcome.Degraded,
		EvaluatedAt:           now,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
