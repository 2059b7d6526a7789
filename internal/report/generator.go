// Package report turns a finished interview transcript into a candidate assessment.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"vetting/interviewer/internal/evaluation"
	"vetting/interviewer/internal/llm"
	"vetting/interviewer/internal/metrics"
	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/prompts"
	"vetting/interviewer/internal/repositories"
)

const (
	degradedConfidence = 0.3
	manualReviewNote   = "Automated assessment unavailable; this report requires manual review of the transcript."
)

var Schema = llm.Schema{
	Name: "candidate_report",
	Definition: `{"type":"object","properties":{` +
		`"header":{"type":"string"},` +
		`"risk_factors":{"type":"array","items":{"type":"object","properties":{` +
		`"category":{"type":"string"},"description":{"type":"string"},` +
		`"severity":{"type":"string","enum":["low","medium","high","critical"]},"evidence":{"type":"string"}}}},` +
		`"overall_risk_level":{"type":"string","enum":["low","medium","high","critical"]},` +
		`"general_observation":{"type":"string"},` +
		`"final_grade":{"type":"string","enum":["excellent","good","satisfactory","needs_improvement","unsatisfactory"]},` +
		`"general_impression":{"type":"string"},` +
		`"confidence_score":{"type":"number","minimum":0,"maximum":1},` +
		`"key_strengths":{"type":"array","items":{"type":"string"}},` +
		`"areas_of_concern":{"type":"array","items":{"type":"string"}}},` +
		`"required":["header","risk_factors","overall_risk_level","general_observation","final_grade","general_impression","confidence_score","key_strengths","areas_of_concern"]}`,
	Required: []string{
		"header", "risk_factors", "overall_risk_level", "general_observation", "final_grade",
		"general_impression", "confidence_score", "key_strengths", "areas_of_concern",
	},
}

type riskFactor struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Evidence    string `json:"evidence"`
}

// assessment is the model output before it becomes a CandidateReport
type assessment struct {
	Header             string       `json:"header"`
	RiskFactors        []riskFactor `json:"risk_factors"`
	OverallRiskLevel   string       `json:"overall_risk_level"`
	GeneralObservation string       `json:"general_observation"`
	FinalGrade         string       `json:"final_grade"`
	GeneralImpression  string       `json:"general_impression"`
	ConfidenceScore    float64      `json:"confidence_score"`
	KeyStrengths       []string     `json:"key_strengths"`
	AreasOfConcern     []string     `json:"areas_of_concern"`
}

func (a *assessment) Validate() error {
	var errs []error
	if _, err := models.ParseRiskLevel(a.OverallRiskLevel); err != nil {
		errs = append(errs, fmt.Errorf("overall_risk_level: %w", err))
	}
	if _, err := models.ParseGrade(a.FinalGrade); err != nil {
		errs = append(errs, fmt.Errorf("final_grade: %w", err))
	}
	for i, rf := range a.RiskFactors {
		if _, err := models.ParseRiskLevel(rf.Severity); err != nil {
			errs = append(errs, fmt.Errorf("risk_factors[%d].severity: %w", i, err))
		}
	}
	if a.ConfidenceScore < 0 || a.ConfidenceScore > 1 {
		errs = append(errs, fmt.Errorf("confidence_score %v is outside [0, 1]", a.ConfidenceScore))
	}
	return errors.Join(errs...)
}

// toReport converts a validated assessment
func (a *assessment) toReport(session *models.InterviewSession) *models.CandidateReport {
	risk, _ := models.ParseRiskLevel(a.OverallRiskLevel)
	grade, _ := models.ParseGrade(a.FinalGrade)

	factors := make([]models.RiskFactor, 0, len(a.RiskFactors))
	for _, rf := range a.RiskFactors {
		severity, _ := models.ParseRiskLevel(rf.Severity)
		factors = append(factors, models.RiskFactor{
			Category:    rf.Category,
			Description: rf.Description,
			Severity:    severity,
			Evidence:    rf.Evidence,
		})
	}

	return &models.CandidateReport{
		CandidateID:        session.CandidateID,
		SessionID:          session.ID,
		Header:             a.Header,
		RiskFactors:        factors,
		OverallRiskLevel:   risk,
		GeneralObservation: a.GeneralObservation,
		FinalGrade:         grade,
		GeneralImpression:  a.GeneralImpression,
		ConfidenceScore:    a.ConfidenceScore,
		KeyStrengths:       nonNil(a.KeyStrengths),
		AreasOfConcern:     nonNil(a.AreasOfConcern),
	}
}

// Degraded is the placeholder stored when the assessment could not be generated
func Degraded(session *models.InterviewSession, cause error) *models.CandidateReport {
	observation := manualReviewNote
	if cause != nil {
		observation += " Cause: " + cause.Error()
	}
	return &models.CandidateReport{
		CandidateID:        session.CandidateID,
		SessionID:          session.ID,
		Header:             "Assessment pending manual review",
		RiskFactors:        []models.RiskFactor{},
		OverallRiskLevel:   models.RiskMedium,
		GeneralObservation: observation,
		FinalGrade:         models.GradeSatisfactory,
		GeneralImpression:  manualReviewNote,
		ConfidenceScore:    degradedConfidence,
		KeyStrengths:       []string{},
		AreasOfConcern:     []string{"Automated assessment failed; review the transcript manually."},
		Degraded:           true,
	}
}

type Store interface {
	GetByCandidate(ctx context.Context, candidateID uint) (*models.CandidateReport, error)
	InsertIfAbsent(ctx context.Context, report *models.CandidateReport) (bool, error)
}

// Directory looks up the names shown in the report prompt
type Directory interface {
	GetCandidate(ctx context.Context, id uint) (*models.Candidate, error)
	GetInterview(ctx context.Context, id uint) (*models.Interview, error)
}

type Generator struct {
	generator evaluation.Generator
	prompts   evaluation.PromptRenderer
	store     Store
	directory Directory
	timeout   time.Duration
	logger    *zap.Logger
}

func NewGenerator(generator evaluation.Generator, renderer evaluation.PromptRenderer, store Store, directory Directory, timeout time.Duration, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		generator: generator,
		prompts:   renderer,
		store:     store,
		directory: directory,
		timeout:   timeout,
		logger:    logger,
	}
}

// Generate creates the candidate's report from the session transcript, or returns the report
// that already exists. Model failures produce a degraded report; only storage errors are returned.
func (g *Generator) Generate(ctx context.Context, session *models.InterviewSession) (*models.CandidateReport, error) {
	existing, err := g.store.GetByCandidate(ctx, session.CandidateID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("lookup report for candidate %d: %w", session.CandidateID, err)
	}

	report, genErr := g.assess(ctx, session)
	if genErr != nil {
		g.logger.Error("Report generation failed, storing degraded report",
			zap.String("session_id", session.ID),
			zap.Uint("candidate_id", session.CandidateID),
			zap.Error(genErr))
		report = Degraded(session, genErr)
	}

	created, err := g.store.InsertIfAbsent(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("store report for candidate %d: %w", session.CandidateID, err)
	}
	if !created {
		// a concurrent trigger won the insert
		return g.store.GetByCandidate(ctx, session.CandidateID)
	}

	metrics.ReportStored(report.Degraded)
	g.logger.Info("Candidate report stored",
		zap.String("session_id", session.ID),
		zap.Uint("candidate_id", session.CandidateID),
		zap.String("risk", string(report.OverallRiskLevel)),
		zap.Bool("degraded", report.Degraded))
	return report, nil
}

func (g *Generator) assess(ctx context.Context, session *models.InterviewSession) (*models.CandidateReport, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	data := prompts.ReportContext{
		Transcript: models.Transcript(session.ConversationHistory),
		RiskLevels: strings.Join(models.RiskLevelsList(), ", "),
		Grades:     strings.Join(models.GradesList(), ", "),
	}
	if g.directory != nil {
		if candidate, err := g.directory.GetCandidate(ctx, session.CandidateID); err == nil {
			data.CandidateName = candidate.Name
		}
		if interview, err := g.directory.GetInterview(ctx, session.InterviewID); err == nil {
			data.InterviewTitle = interview.Title
		}
	}

	prompt, err := g.prompts.RenderStage(ctx, prompts.StageReport, data)
	if err != nil {
		return nil, err
	}

	var out assessment
	req := llm.StructuredRequest{Prompt: prompt, Schema: Schema, Tier: llm.TierJudge, RequestID: session.ID}
	if err := g.generator.Generate(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.toReport(session), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
