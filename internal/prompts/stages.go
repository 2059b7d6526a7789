package prompts

import (
	"fmt"
	"strings"
)

// Stage identifies one prompt of the interview pipeline
type Stage string

const (
	StageGreeting         Stage = "greeting"
	StageAnswerEvaluation Stage = "answer_evaluation"
	StageGuardrails       Stage = "guardrails"
	StageResponseComposer Stage = "response_composer"
	StageResponseJudge    Stage = "response_judge"
	StageReport           Stage = "report"
)

func Stages() []Stage {
	return []Stage{
		StageGreeting,
		StageAnswerEvaluation,
		StageGuardrails,
		StageResponseComposer,
		StageResponseJudge,
		StageReport,
	}
}

func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Stages() {
		if stage == known {
			return stage, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
}

// GreetingContext renders the opening interviewer message
type GreetingContext struct {
	CandidateName  string
	InterviewTitle string
	QuestionCount  int
	FirstQuestion  string
}

type EvaluationContext struct {
	Transcript    string
	QuestionTitle string
	QuestionText  string
	Instructions  string
	Importance    string
}

type GuardrailsContext struct {
	Transcript       string
	CandidateMessage string
	CurrentQuestion  string
}

// ComposerContext carries the progression decision that was already taken for this turn.
// NextQuestion is the literal "none" sentinel text when the interview is about to close.
type ComposerContext struct {
	Transcript       string
	CandidateMessage string
	CurrentIndex     int
	CurrentQuestion  string
	Importance       string
	FullyAnswered    bool
	WillAdvance      bool
	NextQuestion     string
}

type JudgeContext struct {
	ComposerContext
	FirstPass string
}

type ReportContext struct {
	CandidateName  string
	InterviewTitle string
	Transcript     string
	RiskLevels     string
	Grades         string
}

// SampleContext returns a fully populated context for stage, used to validate templates
func SampleContext(stage Stage) (any, error) {
	composer := ComposerContext{
		Transcript:       "Interviewer: Have you ever been dismissed from a job?\nCandidate: Once, in 2019.",
		CandidateMessage: "Once, in 2019.",
		CurrentIndex:     0,
		CurrentQuestion:  "Have you ever been dismissed from a job?",
		Importance:       "MANDATORY",
		FullyAnswered:    false,
		WillAdvance:      false,
		NextQuestion:     "Have you ever been involved in a workplace investigation?",
	}

	switch stage {
	case StageGreeting:
		return GreetingContext{CandidateName: "Alex", InterviewTitle: "Screening", QuestionCount: 2, FirstQuestion: composer.CurrentQuestion}, nil
	case StageAnswerEvaluation:
		return EvaluationContext{
			Transcript:    composer.Transcript,
			QuestionTitle: "Dismissals",
			QuestionText:  composer.CurrentQuestion,
			Instructions:  "Ask for the reason if not given.",
			Importance:    composer.Importance,
		}, nil
	case StageGuardrails:
		return GuardrailsContext{
			Transcript:       composer.Transcript,
			CandidateMessage: composer.CandidateMessage,
			CurrentQuestion:  composer.CurrentQuestion,
		}, nil
	case StageResponseComposer:
		return composer, nil
	case StageResponseJudge:
		return JudgeContext{ComposerContext: composer, FirstPass: `{"response_text":"Thank you."}`}, nil
	case StageReport:
		return ReportContext{
			CandidateName:  "Alex",
			InterviewTitle: "Screening",
			Transcript:     composer.Transcript,
			RiskLevels:     "low, medium, high, critical",
			Grades:         "excellent, good, satisfactory, needs_improvement, unsatisfactory",
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
}
