package openai

import (
	"errors"
	"os"

	oai "github.com/sashabaranov/go-openai"

	"vetting/interviewer/internal/llm"
)

type Config struct {
	APIKey     string
	Model      string
	JudgeModel string
	BaseURL    string // optional, for OpenAI-compatible gateways
}

func NewConfig() (*Config, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is required")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = oai.GPT4oMini
	}
	judgeModel := os.Getenv("OPENAI_JUDGE_MODEL")
	if judgeModel == "" {
		judgeModel = model
	}

	return &Config{
		APIKey:     apiKey,
		Model:      model,
		JudgeModel: judgeModel,
		BaseURL:    os.Getenv("OPENAI_BASE_URL"),
	}, nil
}

func (c *Config) ModelFor(tier string) string {
	if tier == llm.TierJudge && c.JudgeModel != "" {
		return c.JudgeModel
	}
	return c.Model
}
