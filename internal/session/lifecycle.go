package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vetting/interviewer/internal/events"
	"vetting/interviewer/internal/metrics"
	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/repositories"
)

// End finishes the interview early: the session becomes COMPLETED and every unanswered question
// from the current index on is SKIPPED. Ending a COMPLETED session returns it unchanged.
func (s *Service) End(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case models.SessionCompleted:
		return session, nil
	case models.SessionAbandoned:
		return nil, ErrSessionNotActive
	}

	now := s.now()
	session.UpdatedAt = now
	if err := s.complete(ctx, session, nil, now, "ended"); err != nil {
		return nil, err
	}
	return session, nil
}

// Abandon closes an ACTIVE session without a report
func (s *Service) Abandon(ctx context.Context, sessionID, reason string) (*models.InterviewSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, ErrSessionNotActive
	}

	now := s.now()
	session.UpdatedAt = now
	if err := s.abandon(ctx, session, nil, now, reason); err != nil {
		return nil, err
	}
	return session, nil
}

// complete commits the session as COMPLETED, then generates the report and publishes the
// completion event. Neither side effect can fail the transition.
func (s *Service) complete(ctx context.Context, session *models.InterviewSession, questions []*models.InterviewQuestion, now time.Time, reason string) error {
	if err := s.close(ctx, session, models.SessionCompleted, questions, now); err != nil {
		return err
	}

	// the transition is durable, a cancelled request must not cut the report short
	ctx = context.WithoutCancel(ctx)

	event := events.Event{
		Type:        events.TypeInterviewCompleted,
		SessionID:   session.ID,
		CandidateID: session.CandidateID,
		InterviewID: session.InterviewID,
		Reason:      reason,
		OccurredAt:  now,
	}
	if s.reports != nil {
		report, err := s.reports.Generate(ctx, session)
		if err != nil {
			s.logger.Error("Report generation failed after completion",
				zap.String("session_id", session.ID), zap.Error(err))
		} else {
			event.ReportID = report.ID
		}
	}
	s.publish(ctx, event)

	metrics.SessionClosed(string(models.SessionCompleted), reason)
	s.logger.Info("Interview completed",
		zap.String("session_id", session.ID),
		zap.String("reason", reason),
		zap.Int("duration_seconds", session.DurationSeconds))
	return nil
}

func (s *Service) abandon(ctx context.Context, session *models.InterviewSession, questions []*models.InterviewQuestion, now time.Time, reason string) error {
	if err := s.close(ctx, session, models.SessionAbandoned, questions, now); err != nil {
		return err
	}

	s.publish(context.WithoutCancel(ctx), events.Event{
		Type:        events.TypeInterviewAbandoned,
		SessionID:   session.ID,
		CandidateID: session.CandidateID,
		InterviewID: session.InterviewID,
		Reason:      reason,
		OccurredAt:  now,
	})

	metrics.SessionClosed(string(models.SessionAbandoned), reason)
	s.logger.Info("Interview abandoned",
		zap.String("session_id", session.ID),
		zap.String("reason", reason))
	return nil
}

// close moves the session into a terminal status and skips what is left of the questions from
// the current index on, in the same commit as the turn's question updates
func (s *Service) close(ctx context.Context, session *models.InterviewSession, status models.SessionStatus, questions []*models.InterviewQuestion, now time.Time) error {
	session.Close(status, now)
	from := session.CurrentQuestionIndex
	return s.sessions.CommitTurn(ctx, repositories.TurnCommit{
		Session:   session,
		Questions: questions,
		SkipFrom:  &from,
	})
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish lifecycle event",
			zap.String("type", event.Type),
			zap.String("session_id", event.SessionID),
			zap.Error(err))
	}
}
