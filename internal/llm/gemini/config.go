package gemini

import (
	"errors"
	"os"

	"vetting/interviewer/internal/llm"
)

// holds Gemini-specific configuration
type Config struct {
	APIKey     string
	Model      string
	JudgeModel string
	BaseURL    string
}

func NewConfig() (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is required")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash" // default model
	}

	// the judge tier falls back to the fast model when no stronger one is configured
	judgeModel := os.Getenv("GEMINI_JUDGE_MODEL")
	if judgeModel == "" {
		judgeModel = model
	}

	return &Config{
		APIKey:     apiKey,
		Model:      model,
		JudgeModel: judgeModel,
		BaseURL:    os.Getenv("GEMINI_BASE_URL"),
	}, nil
}

// ModelFor maps a model tier onto a configured model name
func (c *Config) ModelFor(tier string) string {
	if tier == llm.TierJudge && c.JudgeModel != "" {
		return c.JudgeModel
	}
	return c.Model
}
