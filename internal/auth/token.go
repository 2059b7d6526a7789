// Package auth issues and verifies the bearer tokens that bind a candidate to their session.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 4 * time.Hour

var (
	ErrMissingAuthHeader = errors.New("missing or malformed Authorization header")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidClaims     = errors.New("invalid token claims")
)

// SessionClaims carries the session a candidate was authenticated into. Subject is the candidate id.
type SessionClaims struct {
	SessionID   string `json:"session_id"`
	InterviewID uint   `json:"interview_id"`
	jwt.RegisteredClaims
}

// CandidateID parses the subject claim
func (c *SessionClaims) CandidateID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q", ErrInvalidClaims, c.Subject)
	}
	return uint(id), nil
}

var parseJWT = func(tokenStr string, claims jwt.Claims, keyFunc jwt.Keyfunc) (*jwt.Token, error) {
	return jwt.ParseWithClaims(tokenStr, claims, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the session and returns it with its expiry
func (t *Tokens) Issue(sessionID string, candidateID, interviewID uint) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := SessionClaims{
		SessionID:   sessionID,
		InterviewID: interviewID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(candidateID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

// Verify validates a raw token string and returns its claims
func (t *Tokens) Verify(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := parseJWT(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	parsed, ok := token.Claims.(*SessionClaims)
	if !ok || parsed.SessionID == "" {
		return nil, ErrInvalidClaims
	}
	return parsed, nil
}

// VerifyRequest reads the bearer token from the Authorization header and verifies it
func (t *Tokens) VerifyRequest(r *http.Request) (*SessionClaims, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return nil, ErrMissingAuthHeader
	}
	return t.Verify(strings.TrimPrefix(authz, "Bearer "))
}
