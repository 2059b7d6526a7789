package models

import (
	"strings"
)

// maxMessageLength bounds a single candidate turn
const maxMessageLength = 8000

type AuthRequest struct {
	PassKey string `json:"pass_key"`
}

// implements the Validator interface
func (r *AuthRequest) Validate() error {
	r.PassKey = strings.TrimSpace(r.PassKey)
	if r.PassKey == "" {
		return &ErrorResponse{
			Code:    "missing_pass_key",
			Message: "pass_key field is required",
		}
	}
	return nil
}

type StartSessionRequest struct {
	CandidateID uint `json:"candidate_id"`
	InterviewID uint `json:"interview_id"`
}

func (r *StartSessionRequest) Validate() error {
	var details []ValidationErrorDetail
	if r.CandidateID == 0 {
		details = append(details, ValidationErrorDetail{Field: "candidate_id", Reason: "required"})
	}
	if r.InterviewID == 0 {
		details = append(details, ValidationErrorDetail{Field: "interview_id", Reason: "required"})
	}
	if len(details) > 0 {
		return &ErrorResponse{
			Code:    "invalid_session_request",
			Message: "candidate_id and interview_id are required",
			Details: details,
		}
	}
	return nil
}

type ChatRequest struct {
	Message string `json:"message"`
}

func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return &ErrorResponse{Code: "missing_message", Message: "message is required"}
	}
	if len(r.Message) > maxMessageLength {
		return &ErrorResponse{Code: "message_too_long", Message: "message exceeds the maximum length"}
	}
	return nil
}

type PromptUpdateRequest struct {
	Content  string `json:"content"`
	IsActive *bool  `json:"is_active,omitempty"`
	EditedBy string `json:"edited_by,omitempty"`
}

func (r *PromptUpdateRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return &ErrorResponse{Code: "missing_content", Message: "content is required"}
	}
	return nil
}
