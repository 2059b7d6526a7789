package models

// raw model output plus call metadata, returned by every LLM provider
type GenerationResponse struct {
	Content   string             `json:"content"`
	RequestID string             `json:"request_id"`
	Metadata  GenerationMetadata `json:"metadata"`
}

type GenerationMetadata struct {
	ProcessingTime int    `json:"processing_time_ms"`
	Tier           string `json:"tier"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

type AuthResponse struct {
	CandidateID    uint   `json:"candidate_id"`
	CandidateName  string `json:"candidate_name"`
	InterviewID    uint   `json:"interview_id"`
	InterviewTitle string `json:"interview_title"`
	SessionID      string `json:"session_id"`
	Token          string `json:"token"`
}

type ChatResponse struct {
	AssistantMessage    string        `json:"assistant_message"`
	SessionStatus       SessionStatus `json:"session_status"`
	IsInterviewComplete bool          `json:"is_interview_complete"`
}

// uniform error responses
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// single field validation error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}
