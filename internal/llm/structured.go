package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"vetting/interviewer/internal/metrics"
)

// DefaultMaxAttempts is the total number of model calls per structured request
const DefaultMaxAttempts = 3

var (
	ErrValidationFailure   = errors.New("structured output failed validation")
	ErrUpstreamUnavailable = errors.New("model backend unavailable")
	ErrNoJSONObject        = errors.New("no JSON object found in response")
)

// Schema declares the JSON object a call site expects back from the model
type Schema struct {
	Name       string
	Definition string   // JSON schema shown to the model
	Required   []string // top-level keys that must be present
}

// PromptMarker is the line that introduces the schema in every prompt built for it
func (s Schema) PromptMarker() string {
	return fmt.Sprintf("The object must match the %q JSON schema:", s.Name)
}

type StructuredRequest struct {
	Prompt    string
	Schema    Schema
	Tier      string
	RequestID string
}

// GenerationError is returned once every attempt has failed. Kind is ErrValidationFailure or
// ErrUpstreamUnavailable and Cause is the error of the last attempt.
type GenerationError struct {
	Schema   string
	Attempts int
	Kind     error
	Cause    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("structured generation %q failed after %d attempts: %v: %v", e.Schema, e.Attempts, e.Kind, e.Cause)
}

func (e *GenerationError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

// Validator is implemented by structured outputs that check their own semantics after decoding
type Validator interface {
	Validate() error
}

// StructuredClient wraps a Provider with schema prompting, JSON extraction and bounded retries
type StructuredClient struct {
	provider    Provider
	maxAttempts int
	logger      *zap.Logger
}

func NewStructuredClient(provider Provider, maxAttempts int, logger *zap.Logger) *StructuredClient {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StructuredClient{
		provider:    provider,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Generate asks the model for an object matching req.Schema and decodes it into out,
// which must be a non-nil pointer. out is only written on success.
func (c *StructuredClient) Generate(ctx context.Context, req StructuredRequest, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("structured generation %q: out must be a non-nil pointer", req.Schema.Name)
	}

	var (
		history  []string
		lastErr  error
		kind     error
		attempts int
	)

	for attempts < c.maxAttempts {
		if err := ctx.Err(); err != nil {
			kind, lastErr = ErrUpstreamUnavailable, err
			break
		}
		attempts++

		prompt := buildStructuredPrompt(req.Prompt, req.Schema, history)
		resp, err := c.provider.GenerateContent(ctx, prompt, req.RequestID, req.Tier)
		if err != nil {
			kind, lastErr = ErrUpstreamUnavailable, err
			c.logger.Warn("Structured generation call failed",
				zap.String("schema", req.Schema.Name),
				zap.Int("attempt", attempts),
				zap.String("request_id", req.RequestID),
				zap.Error(err))
			continue
		}

		fresh := reflect.New(target.Elem().Type())
		if err := decodeStructured(resp.Content, req.Schema, fresh.Interface()); err != nil {
			kind, lastErr = ErrValidationFailure, err
			history = append(history, fmt.Sprintf("Attempt %d: %v", attempts, err))
			c.logger.Warn("Structured output rejected",
				zap.String("schema", req.Schema.Name),
				zap.Int("attempt", attempts),
				zap.String("request_id", req.RequestID),
				zap.Error(err))
			continue
		}

		target.Elem().Set(fresh.Elem())
		metrics.ObserveGeneration(req.Schema.Name, attempts, true)
		return nil
	}

	metrics.ObserveGeneration(req.Schema.Name, attempts, false)
	return &GenerationError{Schema: req.Schema.Name, Attempts: attempts, Kind: kind, Cause: lastErr}
}

func buildStructuredPrompt(prompt string, schema Schema, history []string) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nRespond ONLY with a single valid JSON object, no text outside the JSON.\n")
	if schema.Definition != "" {
		b.WriteString(schema.PromptMarker())
		b.WriteString("\n")
		b.WriteString(schema.Definition)
		b.WriteString("\n")
	}
	if len(history) > 0 {
		b.WriteString("\nPrevious attempts were rejected. Fix these errors:\n")
		for _, line := range history {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func decodeStructured(content string, schema Schema, out any) error {
	raw, err := ExtractJSONObject(content)
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	for _, key := range schema.Required {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("missing required field %q", key)
		}
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("JSON does not match schema: %w", err)
	}
	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid field values: %w", err)
		}
	}
	return nil
}

// ExtractJSONObject returns the span from the first "{" to the last "}" of a free-form reply
func ExtractJSONObject(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return "", ErrNoJSONObject
	}
	return content[start : end+1], nil
}
