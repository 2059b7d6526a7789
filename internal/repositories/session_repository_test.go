package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(f testhelpers.Fixture, now time.Time) *models.InterviewSession {
	key := models.ActiveSessionKey(f.Candidate.ID, f.Interview.ID)
	s := &models.InterviewSession{
		ID:          uuid.NewString(),
		CandidateID: f.Candidate.ID,
		InterviewID: f.Interview.ID,
		Status:      models.SessionActive,
		ActiveKey:   &key,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	s.Append(models.ConversationEntry{Role: models.RoleInterviewer, Content: "Welcome", Timestamp: now})
	return s
}

func TestSessionCreateMarksFirstQuestionAsked(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	f := testhelpers.SeedInterview(t, db, "key-1", models.ImportanceMandatory, models.ImportanceOptional)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()
	now := time.Now().UTC()

	first := f.Assignments[0]
	first.Status = models.QuestionAsked
	first.AskedAt = &now
	s := newSession(f, now)
	require.NoError(t, repo.Create(ctx, s, &first))

	active, err := repo.FindActive(ctx, f.Candidate.ID, f.Interview.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, active.ID)
	require.Len(t, active.ConversationHistory, 1)
	assert.Equal(t, "Welcome", active.ConversationHistory[0].Content)

	assignments, err := (&InterviewRepository{DB: db}).ListAssignments(ctx, f.Interview.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuestionAsked, assignments[0].Status)
	assert.Equal(t, models.QuestionPending, assignments[1].Status)

	// a second ACTIVE session for the same pair violates the active key
	err = repo.Create(ctx, newSession(f, now), nil)
	assert.ErrorIs(t, err, ErrActiveSessionExists)
}

func TestCommitTurnRevisionGuard(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	f := testhelpers.SeedInterview(t, db, "key-2", models.ImportanceAskOnce)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()
	now := time.Now().UTC()

	s := newSession(f, now)
	require.NoError(t, repo.Create(ctx, s, nil))

	stale := *s
	s.Append(models.ConversationEntry{Role: models.RoleCandidate, Content: "hello", Timestamp: now})
	require.NoError(t, repo.CommitTurn(ctx, TurnCommit{Session: s}))
	assert.Equal(t, 1, s.Revision)

	stale.ConversationHistory = append(stale.ConversationHistory[:1:1], models.ConversationEntry{Role: models.RoleCandidate, Content: "lost", Timestamp: now})
	q := f.Assignments[0]
	q.Status = models.QuestionAnswered
	err := repo.CommitTurn(ctx, TurnCommit{Session: &stale, Questions: []*models.InterviewQuestion{&q}})
	require.True(t, errors.Is(err, ErrInconsistentState), "expected ErrInconsistentState, got %v", err)

	stored, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, stored.ConversationHistory, 2)
	assert.Equal(t, "hello", stored.ConversationHistory[1].Content)

	assignments, err := (&InterviewRepository{DB: db}).ListAssignments(ctx, f.Interview.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuestionPending, assignments[0].Status, "rolled back turn must not touch questions")
}

func TestCommitTurnSkipsRemaining(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	f := testhelpers.SeedInterview(t, db, "key-3",
		models.ImportanceMandatory, models.ImportanceMandatory, models.ImportanceOptional, models.ImportanceAskOnce)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()
	now := time.Now().UTC()

	q0 := f.Assignments[0]
	q0.Status = models.QuestionAnswered
	q1 := f.Assignments[1]
	q1.Status = models.QuestionAsked
	s := newSession(f, now)
	require.NoError(t, repo.Create(ctx, s, nil))

	s.CurrentQuestionIndex = 1
	s.Close(models.SessionCompleted, now.Add(time.Minute))
	from := s.CurrentQuestionIndex
	require.NoError(t, repo.CommitTurn(ctx, TurnCommit{Session: s, Questions: []*models.InterviewQuestion{&q0, &q1}, SkipFrom: &from}))

	assignments, err := (&InterviewRepository{DB: db}).ListAssignments(ctx, f.Interview.ID)
	require.NoError(t, err)
	want := []models.QuestionStatus{models.QuestionAnswered, models.QuestionSkipped, models.QuestionSkipped, models.QuestionSkipped}
	for i, a := range assignments {
		assert.Equal(t, want[i], a.Status, "assignment %d", i)
	}

	_, err = repo.FindActive(ctx, f.Candidate.ID, f.Interview.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	latest, err := repo.FindLatest(ctx, f.Candidate.ID, f.Interview.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, latest.Status)
	assert.Equal(t, 60, latest.DurationSeconds)
}

func TestListIdleAndCompletedWithoutReport(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	f := testhelpers.SeedInterview(t, db, "key-4", models.ImportanceOptional)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()
	old := time.Now().UTC().Add(-2 * time.Hour)

	s := newSession(f, old)
	require.NoError(t, repo.Create(ctx, s, nil))

	idle, err := repo.ListIdle(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, idle, 1)
	assert.Equal(t, s.ID, idle[0].ID)

	s.Close(models.SessionCompleted, time.Now().UTC())
	s.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.CommitTurn(ctx, TurnCommit{Session: s}))

	pending, err := repo.ListCompletedWithoutReport(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	reports := &ReportRepository{DB: db}
	created, err := reports.InsertIfAbsent(ctx, &models.CandidateReport{
		CandidateID:      f.Candidate.ID,
		SessionID:        s.ID,
		OverallRiskLevel: models.RiskLow,
		FinalGrade:       models.GradeGood,
	})
	require.NoError(t, err)
	assert.True(t, created)

	pending, err = repo.ListCompletedWithoutReport(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGetMissingSession(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	_, err := (&SessionRepository{DB: db}).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionCreateResetsQuestionsFromEarlierAttempt(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	f := testhelpers.SeedInterview(t, db, "key-reset", models.ImportanceMandatory, models.ImportanceOptional)
	repo := &SessionRepository{DB: db}
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, db.Model(&models.InterviewQuestion{}).
		Where("interview_id = ?", f.Interview.ID).
		Updates(map[string]any{"status": models.QuestionSkipped, "candidate_answer": "old answer", "answered_at": now}).Error)

	first := f.Assignments[0]
	first.Status = models.QuestionAsked
	first.AskedAt = &now
	require.NoError(t, repo.Create(ctx, newSession(f, now), &first))

	assignments, err := (&InterviewRepository{DB: db}).ListAssignments(ctx, f.Interview.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuestionAsked, assignments[0].Status)
	assert.Equal(t, models.QuestionPending, assignments[1].Status)
	for _, a := range assignments {
		assert.Empty(t, a.CandidateAnswer)
		assert.Nil(t, a.AnsweredAt)
	}
}
