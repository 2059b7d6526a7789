package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vetting/interviewer/internal/llm"
)

func newStubClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&Config{APIKey: "test", Model: "fast-model", JudgeModel: "judge-model", BaseURL: server.URL + "/v1"})
}

func TestGenerateContentSuccess(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req["model"] != "judge-model" {
			t.Errorf("expected judge model, got %v", req["model"])
		}
		format, _ := req["response_format"].(map[string]any)
		if format["type"] != "json_object" {
			t.Errorf("expected json_object response format, got %v", req["response_format"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": `{"score": 4}`}}},
		})
	})

	resp, err := client.GenerateContent(context.Background(), "prompt", "req-1", llm.TierJudge)
	if err != nil {
		t.Fatalf("GenerateContent returned error: %v", err)
	}
	if resp.Content != `{"score": 4}` || resp.Metadata.Model != "judge-model" || resp.Metadata.Provider != "openai" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGenerateContentRateLimit(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "slow down", "type": "rate_limit_error", "code": "rate_limit_exceeded"},
		})
	})

	_, err := client.GenerateContent(context.Background(), "prompt", "req", llm.TierFast)
	var provErr *llm.ProviderError
	if !errors.As(err, &provErr) || provErr.Code != llm.ErrCodeRateLimit {
		t.Fatalf("expected rate limit provider error, got %v", err)
	}
}

func TestGenerateContentEmptyChoices(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "cmpl-2", "choices": []any{}})
	})

	if _, err := client.GenerateContent(context.Background(), "prompt", "req", llm.TierFast); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNewConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewConfig(); err == nil {
		t.Fatal("expected error when API key missing")
	}

	t.Setenv("OPENAI_API_KEY", "key")
	t.Setenv("OPENAI_MODEL", "m")
	t.Setenv("OPENAI_JUDGE_MODEL", "")
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if cfg.ModelFor(llm.TierJudge) != "m" {
		t.Fatalf("expected judge tier fallback, got %+v", cfg)
	}
}
