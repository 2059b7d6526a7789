package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RiskFactor struct {
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Severity    RiskLevel `json:"severity"`
	Evidence    string    `json:"evidence"`
}

// CandidateReport is the post-interview integrity assessment, at most one per candidate
type CandidateReport struct {
	gorm.Model
	CandidateID        uint                            `gorm:"not null;uniqueIndex" json:"candidate_id"`
	SessionID          string                          `gorm:"type:varchar(36);index" json:"session_id"`
	Header             string                          `gorm:"type:text" json:"header"`
	RiskFactors        datatypes.JSONSlice[RiskFactor] `json:"risk_factors"`
	OverallRiskLevel   RiskLevel                       `gorm:"type:varchar(16);not null" json:"overall_risk_level"`
	GeneralObservation string                          `gorm:"type:text" json:"general_observation"`
	FinalGrade         Grade                           `gorm:"type:varchar(32);not null" json:"final_grade"`
	GeneralImpression  string                          `gorm:"type:text" json:"general_impression"`
	ConfidenceScore    float64                         `gorm:"not null" json:"confidence_score"`
	KeyStrengths       datatypes.JSONSlice[string]     `json:"key_strengths"`
	AreasOfConcern     datatypes.JSONSlice[string]     `json:"areas_of_concern"`
	Degraded           bool                            `gorm:"not null;default:false" json:"degraded"`
}

// PromptTemplate is an administrator override for one pipeline stage
type PromptTemplate struct {
	gorm.Model
	Stage    string    `gorm:"uniqueIndex;not null" json:"stage"`
	Content  string    `gorm:"type:text;not null" json:"content"`
	Version  int       `gorm:"not null;default:1" json:"version"`
	IsActive bool      `gorm:"not null" json:"is_active"`
	EditedAt time.Time `json:"edited_at"`
	EditedBy string    `json:"edited_by,omitempty"`
}

// AllModels lists every table this service migrates
func AllModels() []any {
	return []any{
		&Candidate{},
		&Interview{},
		&Question{},
		&InterviewQuestion{},
		&InterviewSession{},
		&CandidateReport{},
		&PromptTemplate{},
	}
}
