package session

import (
	"errors"

	"vetting/interviewer/internal/repositories"
)

var (
	ErrNotFound          = repositories.ErrNotFound
	ErrInconsistentState = repositories.ErrInconsistentState
	ErrSessionNotActive  = errors.New("session is not active")
	ErrInterviewClosed   = errors.New("interview has already been finished")
	ErrEmptyMessage      = errors.New("message is empty")
)
