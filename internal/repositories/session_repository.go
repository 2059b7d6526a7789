package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vetting/interviewer/internal/models"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

// TurnCommit is everything one turn persists. Questions are written back whole (status, answer,
// analysis, timestamps). When SkipFrom is set, PENDING and ASKED assignments of the interview
// at or after that order index become SKIPPED.
type TurnCommit struct {
	Session   *models.InterviewSession
	Questions []*models.InterviewQuestion
	SkipFrom  *int
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	if err := r.DB.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "session")
	}
	return &session, nil
}

// FindActive returns the ACTIVE session of the pair
func (r *SessionRepository) FindActive(ctx context.Context, candidateID, interviewID uint) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.DB.WithContext(ctx).
		First(&session, "active_key = ?", models.ActiveSessionKey(candidateID, interviewID)).Error
	if err != nil {
		return nil, notFound(err, "active session")
	}
	return &session, nil
}

// FindLatest returns the most recently started session of the pair in any status
func (r *SessionRepository) FindLatest(ctx context.Context, candidateID, interviewID uint) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.DB.WithContext(ctx).
		Where("candidate_id = ? AND interview_id = ?", candidateID, interviewID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		return nil, notFound(err, "session")
	}
	return &session, nil
}

// Create inserts a new ACTIVE session, resets the interview's questions to PENDING and marks
// the first one ASKED in one transaction.
// Losing the race on the active key yields ErrActiveSessionExists.
func (r *SessionRepository) Create(ctx context.Context, session *models.InterviewSession, first *models.InterviewQuestion) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrActiveSessionExists
			}
			return fmt.Errorf("create session: %w", err)
		}
		// restarts after an abandoned attempt begin from a clean question list
		err := tx.Model(&models.InterviewQuestion{}).
			Where("interview_id = ?", session.InterviewID).
			Updates(map[string]any{
				"status":           models.QuestionPending,
				"candidate_answer": "",
				"ai_analysis":      nil,
				"asked_at":         nil,
				"answered_at":      nil,
			}).Error
		if err != nil {
			return fmt.Errorf("reset questions: %w", err)
		}
		if first != nil {
			if err := saveQuestion(tx, first); err != nil {
				return err
			}
		}
		return nil
	})
}

// CommitTurn persists a turn atomically. The session row is only updated when its revision still
// matches what was read; otherwise nothing is written and ErrInconsistentState is returned.
func (r *SessionRepository) CommitTurn(ctx context.Context, commit TurnCommit) error {
	s := commit.Session
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InterviewSession{}).
			Where("id = ? AND revision = ?", s.ID, s.Revision).
			Updates(map[string]any{
				"status":                 s.Status,
				"current_question_index": s.CurrentQuestionIndex,
				"conversation_history":   s.ConversationHistory,
				"total_messages":         s.TotalMessages,
				"questions_asked":        s.QuestionsAsked,
				"guardrail_strikes":      s.GuardrailStrikes,
				"active_key":             s.ActiveKey,
				"completed_at":           s.CompletedAt,
				"duration_seconds":       s.DurationSeconds,
				"revision":               s.Revision + 1,
				"updated_at":             s.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("update session %s: %w", s.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("session %s revision %d: %w", s.ID, s.Revision, ErrInconsistentState)
		}

		for _, q := range commit.Questions {
			if err := saveQuestion(tx, q); err != nil {
				return err
			}
		}

		if commit.SkipFrom != nil {
			err := tx.Model(&models.InterviewQuestion{}).
				Where("interview_id = ? AND order_index >= ? AND status IN ?", s.InterviewID, *commit.SkipFrom,
					[]models.QuestionStatus{models.QuestionPending, models.QuestionAsked}).
				Update("status", models.QuestionSkipped).Error
			if err != nil {
				return fmt.Errorf("skip remaining questions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Revision++
	return nil
}

// ListIdle returns ACTIVE sessions untouched since before
func (r *SessionRepository) ListIdle(ctx context.Context, before time.Time) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.DB.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.SessionActive, before).
		Order("updated_at ASC").
		Find(&sessions).Error
	return sessions, err
}

// ListCompletedWithoutReport finds COMPLETED sessions whose candidate still has no report
func (r *SessionRepository) ListCompletedWithoutReport(ctx context.Context, limit int) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.DB.WithContext(ctx).
		Where("status = ?", models.SessionCompleted).
		Where("NOT EXISTS (?)", r.DB.Model(&models.CandidateReport{}).
			Select("1").
			Where("candidate_reports.candidate_id = interview_sessions.candidate_id")).
		Order("completed_at ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func saveQuestion(tx *gorm.DB, q *models.InterviewQuestion) error {
	result := tx.Model(&models.InterviewQuestion{}).
		Where("id = ?", q.ID).
		Updates(map[string]any{
			"status":           q.Status,
			"candidate_answer": q.CandidateAnswer,
			"ai_analysis":      q.AIAnalysis,
			"asked_at":         q.AskedAt,
			"answered_at":      q.AnsweredAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update question %d: %w", q.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("question %d: %w", q.ID, ErrInconsistentState)
	}
	return nil
}
