package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vetting/interviewer/internal/config"
	"vetting/interviewer/internal/evaluation"
	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/report"
	"vetting/interviewer/internal/testhelpers"
)

func testConfig() *config.Config {
	return &config.Config{
		Provider:              "gemini",
		GenerationMaxAttempts: 2,
		StageTimeout:          time.Second,
		ReportTimeout:         time.Second,
		PromptCacheTTL:        time.Minute,
		PromptCacheBackend:    "memory",
		JWTSecret:             "test-secret",
		TokenTTL:              time.Hour,
		GuardrailStrikeLimit:  3,
		SessionIdleTimeout:    time.Hour,
		SweepSchedule:         "@every 1h",
		AllowedOrigins:        []string{"http://localhost:5173"},
	}
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCommandTree(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "migrate", "sweep"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	serve, _, _ := root.Find([]string{"serve"})
	assert.NotNil(t, serve.Flags().Lookup("migrate"))
}

func TestInterviewOverHTTP(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	fixture := testhelpers.SeedInterview(t, db, "secret-pass", models.ImportanceMandatory, models.ImportanceOptional)

	provider := &testhelpers.ScriptedProvider{Routes: map[string][]testhelpers.ScriptedReply{
		evaluation.EvaluationSchema.PromptMarker(): {{Content: `{"fully_answered": true, "reasoning": "clear"}`}},
		evaluation.GuardrailsSchema.PromptMarker(): {{Content: `{"can_continue": true}`}},
		evaluation.ReplySchema.PromptMarker():      {{Content: `{"reasoning":"r","response_text":"Thanks, next one.","was_question_answered":true,"answered_question_index":0}`}},
		evaluation.JudgeSchema.PromptMarker():      {{Content: `{"reasoning":"r","response_text":"Thank you. Next question.","was_question_answered":true,"answered_question_index":0}`}},
		report.Schema.PromptMarker(): {{Content: `{"header":"h","risk_factors":[],"overall_risk_level":"low","general_observation":"o",` +
			`"final_grade":"good","general_impression":"i","confidence_score":0.9,"key_strengths":[],"areas_of_concern":[]}`}},
	}}

	a, err := buildApp(testConfig(), zap.NewNop(), db, provider)
	require.NoError(t, err)
	defer a.Close()
	router := a.router()

	rec := call(t, router, http.MethodPost, "/api/v1/interview/auth", "", map[string]string{"pass_key": "secret-pass"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var authResp models.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&authResp))
	assert.Equal(t, fixture.Candidate.ID, authResp.CandidateID)
	require.NotEmpty(t, authResp.Token)

	chatPath := "/api/v1/interview/sessions/" + authResp.SessionID + "/chat"
	rec = call(t, router, http.MethodPost, chatPath, "", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, router, http.MethodPost, chatPath, authResp.Token, map[string]string{"message": "I left because the office closed."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var chat models.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&chat))
	assert.Equal(t, "Thank you. Next question.", chat.AssistantMessage)
	assert.False(t, chat.IsInterviewComplete)

	rec = call(t, router, http.MethodPost, "/api/v1/interview/sessions/"+authResp.SessionID+"/end", authResp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ended models.InterviewSession
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ended))
	assert.Equal(t, models.SessionCompleted, ended.Status)

	rec = call(t, router, http.MethodPost, chatPath, authResp.Token, map[string]string{"message": "one more"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, router, http.MethodGet, "/api/v1/interview/candidates/"+strconv.FormatUint(uint64(fixture.Candidate.ID), 10)+"/report", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stored models.CandidateReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stored))
	assert.Equal(t, models.GradeGood, stored.FinalGrade)
	assert.Equal(t, authResp.SessionID, stored.SessionID)

	rec = call(t, router, http.MethodGet, "/api/v1/admin/prompts/greeting", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, router, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRequestTimeoutCoversTurnStages(t *testing.T) {
	a := &app{cfg: &config.Config{StageTimeout: 45 * time.Second, ReportTimeout: 60 * time.Second}}
	assert.Equal(t, 240*time.Second, a.requestTimeout())
}
