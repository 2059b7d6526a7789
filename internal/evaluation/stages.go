package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vetting/interviewer/internal/llm"
	"vetting/interviewer/internal/prompts"
)

// Stage names one step of the per-turn pipeline
type Stage string

const (
	StageEvaluate   Stage = "evaluate"
	StageGuardrails Stage = "guardrails"
	StageCompose    Stage = "compose"
	StageJudge      Stage = "judge"
)

// StageError is the failure of one pipeline stage
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PromptRenderer renders the active prompt of a stage
type PromptRenderer interface {
	RenderStage(ctx context.Context, stage prompts.Stage, data any) (string, error)
}

// Generator is the structured generation backend shared by every stage
type Generator interface {
	Generate(ctx context.Context, req llm.StructuredRequest, out any) error
}

// stageRunner renders a prompt and runs one structured call under the stage's time budget
type stageRunner struct {
	generator Generator
	prompts   PromptRenderer
	timeout   time.Duration
}

func (r stageRunner) run(ctx context.Context, stage Stage, promptStage prompts.Stage, data any, schema llm.Schema, tier, requestID string, out any) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	prompt, err := r.prompts.RenderStage(ctx, promptStage, data)
	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	req := llm.StructuredRequest{Prompt: prompt, Schema: schema, Tier: tier, RequestID: requestID}
	if err := r.generator.Generate(ctx, req, out); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}

// Evaluator judges whether the current question has been fully answered
type Evaluator struct {
	runner stageRunner
}

func (e *Evaluator) Evaluate(ctx context.Context, in TurnInput) (Evaluation, error) {
	var out Evaluation
	err := e.runner.run(ctx, StageEvaluate, prompts.StageAnswerEvaluation, prompts.EvaluationContext{
		Transcript:    in.Transcript,
		QuestionTitle: in.Question.Title,
		QuestionText:  in.Question.Text,
		Instructions:  in.Question.Instructions,
		Importance:    string(in.Question.Importance),
	}, EvaluationSchema, llm.TierFast, in.RequestID, &out)
	return out, err
}

// Guardrails is the narrow abuse, off-topic and injection gate
type Guardrails struct {
	runner stageRunner
}

func (g *Guardrails) Check(ctx context.Context, in TurnInput) (GuardrailVerdict, error) {
	var out GuardrailVerdict
	err := g.runner.run(ctx, StageGuardrails, prompts.StageGuardrails, prompts.GuardrailsContext{
		Transcript:       in.Transcript,
		CandidateMessage: in.CandidateMessage,
		CurrentQuestion:  in.Question.Text,
	}, GuardrailsSchema, llm.TierFast, in.RequestID, &out)
	return out, err
}

// Composer drafts the next interviewer message on the fast tier
type Composer struct {
	runner stageRunner
}

func (c *Composer) Compose(ctx context.Context, cc prompts.ComposerContext, requestID string) (Reply, error) {
	var out Reply
	err := c.runner.run(ctx, StageCompose, prompts.StageResponseComposer, cc, ReplySchema, llm.TierFast, requestID, &out)
	return out, err
}

// Judge reviews the composer draft on the judge tier; its reply is final
type Judge struct {
	runner stageRunner
}

func (j *Judge) Refine(ctx context.Context, cc prompts.ComposerContext, draft Reply, requestID string) (Reply, error) {
	raw, err := json.Marshal(draft)
	if err != nil {
		return Reply{}, &StageError{Stage: StageJudge, Err: err}
	}
	var out Reply
	err = j.runner.run(ctx, StageJudge, prompts.StageResponseJudge, prompts.JudgeContext{
		ComposerContext: cc,
		FirstPass:       string(raw),
	}, JudgeSchema, llm.TierJudge, requestID, &out)
	return out, err
}
