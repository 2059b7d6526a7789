package routers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vetting/interviewer/internal/auth"
	"vetting/interviewer/internal/handlers"
)

func TestHealthRoutes(t *testing.T) {
	router := chi.NewRouter()
	HealthRoutes(router, handlers.NewHealthHandler(nil, nil, nil, nil))

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s not registered correctly, got status %d", path, rec.Code)
		}
	}
}

func TestInterviewAndAdminRoutesRegisterEndpoints(t *testing.T) {
	router := chi.NewRouter()
	logger := zap.NewNop()
	tokens := auth.NewTokens("secret", time.Hour)

	InterviewRoutes(router, handlers.NewInterviewHandler(nil, tokens, logger), handlers.NewReportHandler(nil, logger), tokens)
	AdminRoutes(router, handlers.NewPromptHandler(nil, logger))

	paths := map[string]bool{}
	if err := chi.Walk(router, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		paths[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("failed walking routes: %v", err)
	}

	expected := []string{
		"POST /api/v1/interview/auth",
		"POST /api/v1/interview/sessions",
		"GET /api/v1/interview/sessions/{session_id}",
		"POST /api/v1/interview/sessions/{session_id}/chat",
		"POST /api/v1/interview/sessions/{session_id}/end",
		"GET /api/v1/interview/candidates/{candidate_id}/report",
		"GET /api/v1/admin/prompts/{stage}",
		"PUT /api/v1/admin/prompts/{stage}",
	}
	for _, route := range expected {
		if !paths[route] {
			t.Fatalf("expected route %s to be registered, got %v", route, paths)
		}
	}
}

func TestChatRequiresSessionToken(t *testing.T) {
	router := chi.NewRouter()
	tokens := auth.NewTokens("secret", time.Hour)
	InterviewRoutes(router, handlers.NewInterviewHandler(nil, tokens, zap.NewNop()), handlers.NewReportHandler(nil, zap.NewNop()), tokens)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/interview/sessions/s-1/end", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}
