package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vetting/interviewer/internal/metrics"
	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/progression"
	"vetting/interviewer/internal/prompts"
)

// Policy says what happens when a stage fails
type Policy int

const (
	// Degrade substitutes the stage's safe default and carries on
	Degrade Policy = iota
	// Propagate aborts the turn with the stage error
	Propagate
)

type FallbackPolicies map[Stage]Policy

func DefaultPolicies() FallbackPolicies {
	return FallbackPolicies{
		StageEvaluate:   Degrade,
		StageGuardrails: Degrade,
		StageCompose:    Degrade,
		StageJudge:      Degrade,
	}
}

// NoNextQuestion is shown to the composer when the turn closes the interview
const NoNextQuestion = "none: close the interview"

const (
	ClosingMessage   = "Thank you for your time and for answering our questions. This concludes the interview."
	redirectPreamble = "Let's keep our conversation focused on the interview."
)

// TurnInput is one candidate turn as the pipeline sees it. Transcript already contains the
// candidate message; Next is nil on the last question.
type TurnInput struct {
	RequestID        string
	Transcript       string
	CandidateMessage string
	CurrentIndex     int
	Question         models.InterviewQuestion
	Next             *models.InterviewQuestion
}

// TurnOutcome is what the pipeline decided for a turn. Blocked turns skip composition and
// carry a neutral redirect; Degraded lists every stage that fell back.
type TurnOutcome struct {
	Evaluation Evaluation
	Guardrail  GuardrailVerdict
	Decision   progression.Decision
	Blocked    bool
	FirstPass  *Reply
	Reply      Reply
	Degraded   []Stage
}

type Config struct {
	StageTimeout time.Duration
	Policies     FallbackPolicies
}

// Pipeline runs evaluate, guardrails, compose and judge in sequence for one turn
type Pipeline struct {
	evaluator  *Evaluator
	guardrails *Guardrails
	composer   *Composer
	judge      *Judge
	policies   FallbackPolicies
	logger     *zap.Logger
}

func NewPipeline(generator Generator, renderer PromptRenderer, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	policies := DefaultPolicies()
	for stage, policy := range cfg.Policies {
		policies[stage] = policy
	}
	runner := stageRunner{generator: generator, prompts: renderer, timeout: cfg.StageTimeout}
	return &Pipeline{
		evaluator:  &Evaluator{runner: runner},
		guardrails: &Guardrails{runner: runner},
		composer:   &Composer{runner: runner},
		judge:      &Judge{runner: runner},
		policies:   policies,
		logger:     logger,
	}
}

func (p *Pipeline) Run(ctx context.Context, in TurnInput) (*TurnOutcome, error) {
	out := &TurnOutcome{}

	evaluation, err := p.evaluator.Evaluate(ctx, in)
	if err != nil {
		if err := p.fallback(out, in, err); err != nil {
			return nil, err
		}
		evaluation = Evaluation{FullyAnswered: false, Reasoning: "evaluation unavailable: " + err.Error()}
	}
	out.Evaluation = evaluation

	verdict, err := p.guardrails.Check(ctx, in)
	if err != nil {
		if err := p.fallback(out, in, err); err != nil {
			return nil, err
		}
		verdict = GuardrailVerdict{CanContinue: true, Reason: "guardrails unavailable: " + err.Error()}
	}
	out.Guardrail = verdict

	if !verdict.CanContinue {
		out.Blocked = true
		out.Reply = Reply{
			Reasoning:             "guardrails: " + verdict.Reason,
			ResponseText:          RedirectReply(in.Question),
			AnsweredQuestionIndex: -1,
		}
		return out, nil
	}

	out.Decision = progression.Decide(in.Question.Importance, evaluation.FullyAnswered)
	cc := composerContext(in, evaluation, out.Decision)

	draft, err := p.composer.Compose(ctx, cc, in.RequestID)
	if err != nil {
		if err := p.fallback(out, in, err); err != nil {
			return nil, err
		}
		// no draft to refine, the judge is skipped
		out.Reply = NeutralReply(in, out.Decision)
		out.Reply.Reasoning = "composer unavailable: " + err.Error()
		return out, nil
	}
	out.FirstPass = &draft

	final, err := p.judge.Refine(ctx, cc, draft, in.RequestID)
	if err != nil {
		if err := p.fallback(out, in, err); err != nil {
			return nil, err
		}
		final = draft
		final.Reasoning = fmt.Sprintf("%s [judge unavailable: %v]", draft.Reasoning, err)
	}
	out.Reply = final
	return out, nil
}

// fallback records a degraded stage, or returns the stage error when its policy propagates
func (p *Pipeline) fallback(out *TurnOutcome, in TurnInput, err error) error {
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		return err
	}
	if p.policies[stageErr.Stage] == Propagate {
		return stageErr
	}

	out.Degraded = append(out.Degraded, stageErr.Stage)
	metrics.StageFallback(string(stageErr.Stage))
	p.logger.Warn("Pipeline stage degraded",
		zap.String("stage", string(stageErr.Stage)),
		zap.String("request_id", in.RequestID),
		zap.Int("question_index", in.CurrentIndex),
		zap.Error(stageErr.Err))
	return nil
}

func composerContext(in TurnInput, evaluation Evaluation, decision progression.Decision) prompts.ComposerContext {
	next := in.Question.Text
	if decision.Advance {
		next = NoNextQuestion
		if in.Next != nil {
			next = in.Next.Text
		}
	}
	return prompts.ComposerContext{
		Transcript:       in.Transcript,
		CandidateMessage: in.CandidateMessage,
		CurrentIndex:     in.CurrentIndex,
		CurrentQuestion:  in.Question.Text,
		Importance:       string(in.Question.Importance),
		FullyAnswered:    evaluation.FullyAnswered,
		WillAdvance:      decision.Advance,
		NextQuestion:     next,
	}
}

// NeutralReply is the deterministic interviewer message used when no model reply is available
func NeutralReply(in TurnInput, decision progression.Decision) Reply {
	reply := Reply{AnsweredQuestionIndex: -1}
	switch {
	case decision.Advance && in.Next != nil:
		reply.ResponseText = "Thank you for your answer. " + in.Next.Text
	case decision.Advance:
		reply.ResponseText = ClosingMessage
	default:
		reply.ResponseText = "Thank you. Could you tell me a little more about this? " + in.Question.Text
	}
	if decision.Advance {
		reply.WasQuestionAnswered = true
		reply.AnsweredQuestionIndex = in.CurrentIndex
	}
	return reply
}

// RedirectReply steers the candidate back to the current question without advancing
func RedirectReply(q models.InterviewQuestion) string {
	return redirectPreamble + " " + q.Text
}
