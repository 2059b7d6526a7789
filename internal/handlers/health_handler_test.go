package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vetting/interviewer/internal/config"
	"vetting/interviewer/internal/prompts"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func newPrompts(t *testing.T) *prompts.Provider {
	t.Helper()
	p, err := prompts.NewProvider(nil, nil, 0, nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return p
}

func TestHealthzHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil, nil, nil, nil).HealthzHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode[map[string]string](t, rec); body["service"] != "interviewer" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestReadyzHandler_AllHealthy(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	handler := NewHealthHandler(mockProvider{}, newPrompts(t), ok, &config.Config{Provider: "gemini"})

	rec := httptest.NewRecorder()
	handler.ReadyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	response := decode[ReadinessResponse](t, rec)
	if response.Status != "ready" || response.Service != "interviewer" {
		t.Fatalf("unexpected response: %+v", response)
	}
	for _, name := range []string{"provider", "prompts", "database", "configuration"} {
		if check, exists := response.Checks[name]; !exists || check.Status != "ok" {
			t.Fatalf("check %s: expected ok, got %+v", name, check)
		}
	}
}

func TestReadyzHandler_Failures(t *testing.T) {
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	cases := map[string]*HealthHandler{
		"provider":      NewHealthHandler(nil, newPrompts(t), down, &config.Config{}),
		"database":      NewHealthHandler(mockProvider{}, newPrompts(t), down, &config.Config{}),
		"prompts":       NewHealthHandler(mockProvider{}, nil, nil, &config.Config{}),
		"configuration": NewHealthHandler(mockProvider{}, newPrompts(t), nil, nil),
	}
	for name, handler := range cases {
		rec := httptest.NewRecorder()
		handler.ReadyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", name, rec.Code)
		}
		response := decode[ReadinessResponse](t, rec)
		if response.Status != "not_ready" || response.Checks[name].Status != "failed" {
			t.Fatalf("%s: unexpected response %+v", name, response)
		}
	}
}
