package prompts

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"text/template"
)

var (
	ErrUnknownStage    = errors.New("unknown prompt stage")
	ErrInvalidTemplate = errors.New("invalid prompt template")
)

// Render executes text against data, which must be the context type of stage. Unknown fields
// and missing keys fail instead of leaving placeholders in the prompt.
func Render(stage Stage, text string, data any) (string, error) {
	sample, err := SampleContext(stage)
	if err != nil {
		return "", err
	}
	if reflect.TypeOf(data) != reflect.TypeOf(sample) {
		return "", fmt.Errorf("%w: stage %s expects %T, got %T", ErrInvalidTemplate, stage, sample, data)
	}

	tmpl, err := template.New(string(stage)).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// Validate checks that text renders against the stage's sample context
func Validate(stage Stage, text string) error {
	sample, err := SampleContext(stage)
	if err != nil {
		return err
	}
	_, err = Render(stage, text, sample)
	return err
}
