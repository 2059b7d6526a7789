package evaluation

import (
	"errors"
	"strings"

	"vetting/interviewer/internal/llm"
)

// Evaluation is the answer evaluator's verdict on the current question
type Evaluation struct {
	FullyAnswered bool   `json:"fully_answered"`
	Reasoning     string `json:"reasoning"`
}

func (e *Evaluation) Validate() error {
	e.Reasoning = strings.TrimSpace(e.Reasoning)
	return nil
}

type GuardrailVerdict struct {
	CanContinue bool   `json:"can_continue"`
	Reason      string `json:"reason,omitempty"`
}

func (g *GuardrailVerdict) Validate() error {
	g.Reason = strings.TrimSpace(g.Reason)
	return nil
}

// Reply is the interviewer message proposed by the composer and confirmed by the judge
type Reply struct {
	Reasoning             string `json:"reasoning"`
	ResponseText          string `json:"response_text"`
	WasQuestionAnswered   bool   `json:"was_question_answered"`
	AnsweredQuestionIndex int    `json:"answered_question_index"`
}

func (r *Reply) Validate() error {
	r.ResponseText = strings.TrimSpace(r.ResponseText)
	if r.ResponseText == "" {
		return errors.New("response_text must not be empty")
	}
	if r.AnsweredQuestionIndex < -1 {
		return errors.New("answered_question_index must be -1 or a question index")
	}
	return nil
}

var (
	EvaluationSchema = llm.Schema{
		Name: "answer_evaluation",
		Definition: `{"type":"object","properties":{` +
			`"fully_answered":{"type":"boolean"},` +
			`"reasoning":{"type":"string"}},` +
			`"required":["fully_answered","reasoning"]}`,
		Required: []string{"fully_answered", "reasoning"},
	}

	GuardrailsSchema = llm.Schema{
		Name: "guardrails",
		Definition: `{"type":"object","properties":{` +
			`"can_continue":{"type":"boolean"},` +
			`"reason":{"type":"string"}},` +
			`"required":["can_continue"]}`,
		Required: []string{"can_continue"},
	}

	ReplySchema = llm.Schema{
		Name: "interviewer_reply",
		Definition: `{"type":"object","properties":{` +
			`"reasoning":{"type":"string"},` +
			`"response_text":{"type":"string"},` +
			`"was_question_answered":{"type":"boolean"},` +
			`"answered_question_index":{"type":"integer"}},` +
			`"required":["reasoning","response_text","was_question_answered","answered_question_index"]}`,
		Required: []string{"reasoning", "response_text", "was_question_answered", "answered_question_index"},
	}

	// JudgeSchema has the shape of ReplySchema under its own name
	JudgeSchema = llm.Schema{
		Name:       "judged_reply",
		Definition: ReplySchema.Definition,
		Required:   ReplySchema.Required,
	}
)
