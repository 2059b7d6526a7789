package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vetting/interviewer/internal/auth"
	"vetting/interviewer/internal/utils"
)

// TokenVerifier checks the bearer token of a request
type TokenVerifier interface {
	VerifyRequest(r *http.Request) (*auth.SessionClaims, error)
}

// RequireSessionToken admits requests whose bearer token was issued for the session named by
// the {session_id} route parameter
func RequireSessionToken(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verifier.VerifyRequest(r)
			if err != nil {
				code := "invalid_token"
				if errors.Is(err, auth.ErrMissingAuthHeader) {
					code = "missing_token"
				}
				utils.Error(w, http.StatusUnauthorized, code, err.Error())
				return
			}
			if id := chi.URLParam(r, "session_id"); id != "" && id != claims.SessionID {
				utils.Error(w, http.StatusForbidden, "session_mismatch", "Token was not issued for this session")
				return
			}

			ctx := context.WithValue(r.Context(), sessionClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionClaims returns the claims stored by RequireSessionToken, nil when absent
func SessionClaims(r *http.Request) *auth.SessionClaims {
	claims, _ := r.Context().Value(sessionClaimsKey).(*auth.SessionClaims)
	return claims
}
