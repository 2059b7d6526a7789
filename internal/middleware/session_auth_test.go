package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"vetting/interviewer/internal/auth"
)

func sessionRouter(tokens *auth.Tokens, seen **auth.SessionClaims) http.Handler {
	r := chi.NewRouter()
	r.With(RequireSessionToken(tokens)).Post("/sessions/{session_id}/chat", func(w http.ResponseWriter, r *http.Request) {
		*seen = SessionClaims(r)
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestRequireSessionToken(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	token, _, err := tokens.Issue("session-a", 1, 2)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"valid", "/sessions/session-a/chat", "Bearer " + token, http.StatusNoContent},
		{"missing", "/sessions/session-a/chat", "", http.StatusUnauthorized},
		{"garbage", "/sessions/session-a/chat", "Bearer nope", http.StatusUnauthorized},
		{"other session", "/sessions/session-b/chat", "Bearer " + token, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen *auth.SessionClaims
			req := httptest.NewRequest(http.MethodPost, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			sessionRouter(tokens, &seen).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			if tc.want == http.StatusNoContent && (seen == nil || seen.SessionID != "session-a") {
				t.Fatalf("expected claims in context, got %+v", seen)
			}
		})
	}
}

func TestSessionClaimsAbsent(t *testing.T) {
	if SessionClaims(httptest.NewRequest(http.MethodGet, "/", nil)) != nil {
		t.Fatal("expected nil claims without the middleware")
	}
}
