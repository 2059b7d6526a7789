package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEnum is returned when a persisted or generated value is outside its closed set
var ErrUnknownEnum = errors.New("unknown enum value")

// Importance controls whether a question must be fully answered before the interview moves on
type Importance string

const (
	ImportanceMandatory Importance = "MANDATORY"
	ImportanceAskOnce   Importance = "ASK_ONCE"
	ImportanceOptional  Importance = "OPTIONAL"
)

func ParseImportance(s string) (Importance, error) {
	switch v := Importance(strings.ToUpper(strings.TrimSpace(s))); v {
	case ImportanceMandatory, ImportanceAskOnce, ImportanceOptional:
		return v, nil
	}
	return "", fmt.Errorf("%w: importance %q", ErrUnknownEnum, s)
}

func (i Importance) Valid() bool { return validEnum(i, ParseImportance) }

func (i *Importance) Scan(src any) error { return scanEnum(src, i, ParseImportance) }

func (i Importance) Value() (driver.Value, error) { return enumValue(i, ParseImportance) }

type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionAbandoned SessionStatus = "ABANDONED"
)

func ParseSessionStatus(s string) (SessionStatus, error) {
	switch v := SessionStatus(strings.ToUpper(strings.TrimSpace(s))); v {
	case SessionActive, SessionCompleted, SessionAbandoned:
		return v, nil
	}
	return "", fmt.Errorf("%w: session status %q", ErrUnknownEnum, s)
}

func (s SessionStatus) Valid() bool { return validEnum(s, ParseSessionStatus) }

func (s *SessionStatus) Scan(src any) error { return scanEnum(src, s, ParseSessionStatus) }

func (s SessionStatus) Value() (driver.Value, error) { return enumValue(s, ParseSessionStatus) }

type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "PENDING"
	QuestionAsked    QuestionStatus = "ASKED"
	QuestionAnswered QuestionStatus = "ANSWERED"
	QuestionSkipped  QuestionStatus = "SKIPPED"
)

func ParseQuestionStatus(s string) (QuestionStatus, error) {
	switch v := QuestionStatus(strings.ToUpper(strings.TrimSpace(s))); v {
	case QuestionPending, QuestionAsked, QuestionAnswered, QuestionSkipped:
		return v, nil
	}
	return "", fmt.Errorf("%w: question status %q", ErrUnknownEnum, s)
}

func (s QuestionStatus) Valid() bool { return validEnum(s, ParseQuestionStatus) }

func (s *QuestionStatus) Scan(src any) error { return scanEnum(src, s, ParseQuestionStatus) }

func (s QuestionStatus) Value() (driver.Value, error) { return enumValue(s, ParseQuestionStatus) }

// Role identifies the author of a conversation entry. Stored lowercase to stay compatible with
// existing transcripts.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

func ParseRole(s string) (Role, error) {
	switch v := Role(strings.ToLower(strings.TrimSpace(s))); v {
	case RoleInterviewer, RoleCandidate:
		return v, nil
	}
	return "", fmt.Errorf("%w: role %q", ErrUnknownEnum, s)
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// RiskLevel is used both for the overall report verdict and for individual risk factor severity
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func ParseRiskLevel(s string) (RiskLevel, error) {
	switch v := RiskLevel(strings.ToLower(strings.TrimSpace(s))); v {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return v, nil
	}
	return "", fmt.Errorf("%w: risk level %q", ErrUnknownEnum, s)
}

func (r RiskLevel) Valid() bool { return validEnum(r, ParseRiskLevel) }

func (r *RiskLevel) Scan(src any) error { return scanEnum(src, r, ParseRiskLevel) }

func (r RiskLevel) Value() (driver.Value, error) { return enumValue(r, ParseRiskLevel) }

type Grade string

const (
	GradeExcellent        Grade = "excellent"
	GradeGood             Grade = "good"
	GradeSatisfactory     Grade = "satisfactory"
	GradeNeedsImprovement Grade = "needs_improvement"
	GradeUnsatisfactory   Grade = "unsatisfactory"
)

func ParseGrade(s string) (Grade, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	switch v := Grade(normalized); v {
	case GradeExcellent, GradeGood, GradeSatisfactory, GradeNeedsImprovement, GradeUnsatisfactory:
		return v, nil
	}
	return "", fmt.Errorf("%w: grade %q", ErrUnknownEnum, s)
}

func (g Grade) Valid() bool { return validEnum(g, ParseGrade) }

func (g *Grade) Scan(src any) error { return scanEnum(src, g, ParseGrade) }

func (g Grade) Value() (driver.Value, error) { return enumValue(g, ParseGrade) }

func RiskLevelsList() []string {
	return []string{string(RiskLow), string(RiskMedium), string(RiskHigh), string(RiskCritical)}
}

func GradesList() []string {
	return []string{
		string(GradeExcellent), string(GradeGood), string(GradeSatisfactory),
		string(GradeNeedsImprovement), string(GradeUnsatisfactory),
	}
}

func validEnum[T ~string](v T, parse func(string) (T, error)) bool {
	parsed, err := parse(string(v))
	return err == nil && parsed == v
}

func scanEnum[T ~string](src any, dst *T, parse func(string) (T, error)) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		return fmt.Errorf("%w: NULL", ErrUnknownEnum)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrUnknownEnum, src)
	}
	parsed, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

func enumValue[T ~string](v T, parse func(string) (T, error)) (driver.Value, error) {
	parsed, err := parse(string(v))
	if err != nil {
		return nil, err
	}
	return string(parsed), nil
}
