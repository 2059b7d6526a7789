package prompts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/repositories"
)

const DefaultCacheTTL = 5 * time.Minute

// OverrideStore persists administrator overrides, one per stage
type OverrideStore interface {
	GetByStage(ctx context.Context, stage string) (*models.PromptTemplate, error)
	Save(ctx context.Context, stage, content string, isActive bool, editedBy string, now time.Time) (*models.PromptTemplate, error)
}

// Source tells where the active text of a stage comes from
type Source string

const (
	SourceBuiltin  Source = "builtin"
	SourceOverride Source = "override"
)

// Resolved is the active prompt of a stage as shown to administrators
type Resolved struct {
	Stage    Stage                  `json:"stage"`
	Content  string                 `json:"content"`
	Source   Source                 `json:"source"`
	Override *models.PromptTemplate `json:"override,omitempty"`
}

// Provider resolves per-stage prompt text: the active override when there is one, otherwise the
// embedded default. Resolved text is cached per stage for ttl.
type Provider struct {
	builtins map[Stage]string
	store    OverrideStore
	cache    Cache
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewProvider(store OverrideStore, cache Cache, ttl time.Duration, logger *zap.Logger) (*Provider, error) {
	builtins, err := loadBuiltins()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		builtins: builtins,
		store:    store,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Builtin returns the embedded default text of stage
func (p *Provider) Builtin(stage Stage) (string, error) {
	text, ok := p.builtins[stage]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	return text, nil
}

// GetActivePrompt returns the text currently in force for stage. Cache and store failures are
// logged and fall back to the builtin text.
func (p *Provider) GetActivePrompt(ctx context.Context, stage Stage) (string, error) {
	builtin, err := p.Builtin(stage)
	if err != nil {
		return "", err
	}

	if p.cache != nil {
		text, ok, err := p.cache.Get(ctx, cacheKey(stage))
		if err != nil {
			p.logger.Warn("Prompt cache read failed", zap.String("stage", string(stage)), zap.Error(err))
		} else if ok {
			return text, nil
		}
	}

	text := builtin
	if p.store != nil {
		override, err := p.store.GetByStage(ctx, string(stage))
		switch {
		case errors.Is(err, repositories.ErrNotFound):
		case err != nil:
			p.logger.Warn("Prompt override lookup failed, using builtin",
				zap.String("stage", string(stage)), zap.Error(err))
			return builtin, nil
		case override.IsActive:
			text = override.Content
		}
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, cacheKey(stage), text, p.ttl); err != nil {
			p.logger.Warn("Prompt cache write failed", zap.String("stage", string(stage)), zap.Error(err))
		}
	}
	return text, nil
}

// RenderStage renders the active prompt of stage. An override that no longer renders falls
// back to the builtin text.
func (p *Provider) RenderStage(ctx context.Context, stage Stage, data any) (string, error) {
	text, err := p.GetActivePrompt(ctx, stage)
	if err != nil {
		return "", err
	}
	rendered, err := Render(stage, text, data)
	if err == nil {
		return rendered, nil
	}

	builtin, _ := p.Builtin(stage)
	if text == builtin {
		return "", err
	}
	p.logger.Warn("Active prompt failed to render, using builtin",
		zap.String("stage", string(stage)), zap.Error(err))
	return Render(stage, builtin, data)
}

// Describe reports the active prompt of stage and where it comes from, bypassing the cache
func (p *Provider) Describe(ctx context.Context, stage Stage) (*Resolved, error) {
	builtin, err := p.Builtin(stage)
	if err != nil {
		return nil, err
	}
	resolved := &Resolved{Stage: stage, Content: builtin, Source: SourceBuiltin}
	if p.store == nil {
		return resolved, nil
	}

	override, err := p.store.GetByStage(ctx, string(stage))
	if errors.Is(err, repositories.ErrNotFound) {
		return resolved, nil
	}
	if err != nil {
		return nil, err
	}
	resolved.Override = override
	if override.IsActive {
		resolved.Content = override.Content
		resolved.Source = SourceOverride
	}
	return resolved, nil
}

// SaveOverride validates content against the stage context, persists it and invalidates the
// cached text of the stage
func (p *Provider) SaveOverride(ctx context.Context, stage Stage, content string, isActive bool, editedBy string) (*models.PromptTemplate, error) {
	if _, err := p.Builtin(stage); err != nil {
		return nil, err
	}
	if p.store == nil {
		return nil, errors.New("prompt overrides are not configured")
	}
	if err := Validate(stage, content); err != nil {
		return nil, err
	}

	saved, err := p.store.Save(ctx, string(stage), content, isActive, editedBy, p.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("save prompt override %s: %w", stage, err)
	}
	p.Invalidate(ctx, stage)

	p.logger.Info("Prompt override saved",
		zap.String("stage", string(stage)),
		zap.Int("version", saved.Version),
		zap.Bool("is_active", saved.IsActive))
	return saved, nil
}

// Invalidate drops the cached text of stage
func (p *Provider) Invalidate(ctx context.Context, stage Stage) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, cacheKey(stage)); err != nil {
		p.logger.Warn("Prompt cache invalidation failed", zap.String("stage", string(stage)), zap.Error(err))
	}
}

func cacheKey(stage Stage) string {
	return "prompt:" + string(stage)
}
