package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/prompts"
	"vetting/interviewer/internal/session"
)

type mockProvider struct{}

func (mockProvider) GenerateContent(context.Context, string, string, string) (*models.GenerationResponse, error) {
	return &models.GenerationResponse{}, nil
}

func (mockProvider) GetProviderName() string { return "mock" }

type mockService struct {
	authenticateFn func(ctx context.Context, passKey string) (*session.AuthResult, error)
	startFn        func(ctx context.Context, candidateID, interviewID uint) (*models.InterviewSession, error)
	chatFn         func(ctx context.Context, sessionID, message string) (*session.TurnResult, error)
	endFn          func(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	getFn          func(ctx context.Context, sessionID string) (*models.InterviewSession, error)
}

func (m *mockService) Authenticate(ctx context.Context, passKey string) (*session.AuthResult, error) {
	return m.authenticateFn(ctx, passKey)
}

func (m *mockService) Start(ctx context.Context, candidateID, interviewID uint) (*models.InterviewSession, error) {
	return m.startFn(ctx, candidateID, interviewID)
}

func (m *mockService) Chat(ctx context.Context, sessionID, message string) (*session.TurnResult, error) {
	return m.chatFn(ctx, sessionID, message)
}

func (m *mockService) End(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	return m.endFn(ctx, sessionID)
}

func (m *mockService) Get(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	return m.getFn(ctx, sessionID)
}

type mockTokens struct {
	issued []string
}

func (m *mockTokens) Issue(sessionID string, _, _ uint) (string, time.Time, error) {
	m.issued = append(m.issued, sessionID)
	return "token-" + sessionID, time.Now().Add(time.Hour), nil
}

type mockPromptAdmin struct {
	describeFn func(ctx context.Context, stage prompts.Stage) (*prompts.Resolved, error)
	saveFn     func(ctx context.Context, stage prompts.Stage, content string, isActive bool, editedBy string) (*models.PromptTemplate, error)
}

func (m *mockPromptAdmin) Describe(ctx context.Context, stage prompts.Stage) (*prompts.Resolved, error) {
	return m.describeFn(ctx, stage)
}

func (m *mockPromptAdmin) SaveOverride(ctx context.Context, stage prompts.Stage, content string, isActive bool, editedBy string) (*models.PromptTemplate, error) {
	return m.saveFn(ctx, stage, content, isActive, editedBy)
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}
