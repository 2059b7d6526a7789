package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	oai "github.com/sashabaranov/go-openai"

	"vetting/interviewer/internal/llm"
	"vetting/interviewer/internal/models"
)

// Client talks to the chat completions API of OpenAI or a compatible gateway
type Client struct {
	client *oai.Client
	config *Config
}

func NewClient(config *Config) *Client {
	cc := oai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cc.BaseURL = config.BaseURL
	}
	return &Client{
		client: oai.NewClientWithConfig(cc),
		config: config,
	}
}

func (c *Client) GenerateContent(ctx context.Context, prompt string, requestID string, tier string) (*models.GenerationResponse, error) {
	startTime := time.Now()
	model := c.config.ModelFor(tier)

	resp, err := c.client.CreateChatCompletion(ctx, oai.ChatCompletionRequest{
		Model: model,
		Messages: []oai.ChatCompletionMessage{
			{Role: oai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &oai.ChatCompletionResponseFormat{Type: oai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: "openai",
			Code:     classify(ctx, err),
			Message:  "Failed to create chat completion",
			Err:      err,
		}
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, &llm.ProviderError{
			Provider: "openai",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}

	return &models.GenerationResponse{
		Content:   resp.Choices[0].Message.Content,
		RequestID: requestID,
		Metadata: models.GenerationMetadata{
			ProcessingTime: int(time.Since(startTime).Milliseconds()),
			Tier:           tier,
			Provider:       "openai",
			Model:          model,
		},
	}, nil
}

func (c *Client) GetProviderName() string {
	return "openai"
}

func classify(ctx context.Context, err error) string {
	var apiErr *oai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return llm.ErrCodeRateLimit
		case http.StatusUnauthorized, http.StatusForbidden:
			return llm.ErrCodeAPIKey
		}
	}
	var reqErr *oai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return llm.ErrCodeRateLimit
	}
	if ctx.Err() != nil {
		return llm.ErrCodeTimeout
	}
	return llm.ErrCodeServiceDown
}
