package testhelpers

import (
	"context"
	"errors"
	"strings"
	"sync"

	"vetting/interviewer/internal/models"
)

// ErrScriptExhausted is returned once a ScriptedProvider has no replies left
var ErrScriptExhausted = errors.New("scripted provider has no replies left")

type ScriptedReply struct {
	Content string
	Err     error
}

// ScriptedProvider is an llm.Provider that replays canned replies. Routes, when set, pick a reply
// queue by substring of the prompt; otherwise Replies are consumed in order.
type ScriptedProvider struct {
	mu      sync.Mutex
	Replies []ScriptedReply
	Routes  map[string][]ScriptedReply
	Prompts []string
	Tiers   []string
}

func (p *ScriptedProvider) GenerateContent(_ context.Context, prompt string, requestID string, tier string) (*models.GenerationResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Prompts = append(p.Prompts, prompt)
	p.Tiers = append(p.Tiers, tier)

	queue := &p.Replies
	for marker := range p.Routes {
		if strings.Contains(prompt, marker) {
			replies := p.Routes[marker]
			queue = &replies
			defer func(marker string) { p.Routes[marker] = replies }(marker)
			break
		}
	}

	if len(*queue) == 0 {
		return nil, ErrScriptExhausted
	}
	reply := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &models.GenerationResponse{
		Content:   reply.Content,
		RequestID: requestID,
		Metadata:  models.GenerationMetadata{Tier: tier, Provider: "scripted"},
	}, nil
}

func (p *ScriptedProvider) GetProviderName() string { return "scripted" }

// Calls returns how many prompts were sent
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Prompts)
}

// CallsContaining counts prompts that contain marker
func (p *ScriptedProvider) CallsContaining(marker string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, prompt := range p.Prompts {
		if strings.Contains(prompt, marker) {
			n++
		}
	}
	return n
}
