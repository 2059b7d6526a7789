package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Candidate is owned by the candidate management system; this service only reads it
type Candidate struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Email       string `json:"email"`
	PassKey     string `gorm:"uniqueIndex;not null" json:"-"`
	InterviewID *uint  `gorm:"index" json:"interview_id"`
}

type Interview struct {
	gorm.Model
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
}

// Question is a question bank item. Interviews reference it through InterviewQuestion
type Question struct {
	gorm.Model
	Title        string     `gorm:"not null" json:"title"`
	Text         string     `gorm:"type:text;not null" json:"text"`
	Instructions string     `gorm:"type:text" json:"instructions"`
	Importance   Importance `gorm:"type:varchar(16);not null" json:"importance"`
	Category     string     `json:"category"`
}

// InterviewQuestion assigns a bank question to an interview. Title, text, instructions and
// importance are a snapshot taken at assignment time and never follow later bank edits.
type InterviewQuestion struct {
	gorm.Model
	InterviewID     uint           `gorm:"not null;uniqueIndex:idx_interview_question_order" json:"interview_id"`
	QuestionID      uint           `gorm:"not null;index" json:"question_id"`
	OrderIndex      int            `gorm:"not null;uniqueIndex:idx_interview_question_order" json:"order_index"`
	Status          QuestionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Title           string         `gorm:"not null" json:"title"`
	Text            string         `gorm:"type:text;not null" json:"text"`
	Instructions    string         `gorm:"type:text" json:"instructions"`
	Importance      Importance     `gorm:"type:varchar(16);not null" json:"importance"`
	Category        string         `json:"category"`
	CandidateAnswer string         `gorm:"type:text" json:"candidate_answer"`
	AIAnalysis      datatypes.JSON `json:"ai_analysis,omitempty"`
	AskedAt         *time.Time     `json:"asked_at,omitempty"`
	AnsweredAt      *time.Time     `json:"answered_at,omitempty"`
}

// NewAssignment snapshots a bank question into a PENDING assignment
func NewAssignment(interviewID uint, q Question, orderIndex int) InterviewQuestion {
	return InterviewQuestion{
		InterviewID:  interviewID,
		QuestionID:   q.ID,
		OrderIndex:   orderIndex,
		Status:       QuestionPending,
		Title:        q.Title,
		Text:         q.Text,
		Instructions: q.Instructions,
		Importance:   q.Importance,
		Category:     q.Category,
	}
}

// ConversationEntry is one message of the append-only transcript.
// QuestionID is the InterviewQuestion the message belongs to, nil for closing messages.
type ConversationEntry struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	QuestionID *uint     `json:"question_id,omitempty"`
}

type InterviewSession struct {
	ID                   string                                 `gorm:"type:varchar(36);primaryKey" json:"id"`
	CandidateID          uint                                   `gorm:"not null;index" json:"candidate_id"`
	InterviewID          uint                                   `gorm:"not null;index" json:"interview_id"`
	Status               SessionStatus                          `gorm:"type:varchar(16);not null;index" json:"status"`
	CurrentQuestionIndex int                                    `gorm:"not null;default:0" json:"current_question_index"`
	ConversationHistory  datatypes.JSONSlice[ConversationEntry] `gorm:"not null" json:"conversation_history"`
	TotalMessages        int                                    `gorm:"not null;default:0" json:"total_messages"`
	QuestionsAsked       int                                    `gorm:"not null;default:0" json:"questions_asked"`
	GuardrailStrikes     int                                    `gorm:"not null;default:0" json:"guardrail_strikes"`
	Revision             int                                    `gorm:"not null;default:0" json:"-"`
	// ActiveKey is set while the session is ACTIVE and cleared afterwards; its unique index keeps
	// a single ACTIVE session per candidate and interview.
	ActiveKey       *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	StartedAt       time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds int        `gorm:"not null;default:0" json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func ActiveSessionKey(candidateID, interviewID uint) string {
	return fmt.Sprintf("%d:%d", candidateID, interviewID)
}

func (s *InterviewSession) IsActive() bool {
	return s.Status == SessionActive
}

// Append adds a message to the transcript and bumps the message counter
func (s *InterviewSession) Append(entry ConversationEntry) {
	s.ConversationHistory = append(s.ConversationHistory, entry)
	s.TotalMessages++
}

// Close moves the session into a terminal status and records its duration
func (s *InterviewSession) Close(status SessionStatus, now time.Time) {
	s.Status = status
	s.CompletedAt = &now
	s.DurationSeconds = int(now.Sub(s.StartedAt).Seconds())
	s.ActiveKey = nil
}

// Transcript renders the history as alternating "Interviewer:" / "Candidate:" lines
func Transcript(history []ConversationEntry) string {
	var b strings.Builder
	for i, entry := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		switch entry.Role {
		case RoleInterviewer:
			b.WriteString("Interviewer: ")
		case RoleCandidate:
			b.WriteString("Candidate: ")
		}
		b.WriteString(entry.Content)
	}
	return b.String()
}
