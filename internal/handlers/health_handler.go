package handlers

import (
	"context"
	"net/http"
	"time"

	"vetting/interviewer/internal/config"
	"vetting/interviewer/internal/llm"
	"vetting/interviewer/internal/prompts"
	"vetting/interviewer/internal/utils"
)

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"` // "ready" | "not_ready"
	Service string                    `json:"service"`
	Checks  map[string]ReadinessCheck `json:"checks"`
}

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// BuiltinPrompts exposes the embedded templates
type BuiltinPrompts interface {
	Builtin(stage prompts.Stage) (string, error)
}

type HealthHandler struct {
	provider llm.Provider
	prompts  BuiltinPrompts
	db       Pinger
	config   *config.Config
}

func NewHealthHandler(provider llm.Provider, builtins BuiltinPrompts, db Pinger, cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		provider: provider,
		prompts:  builtins,
		db:       db,
		config:   cfg,
	}
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "interviewer",
	})
}

func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	checks := map[string]ReadinessCheck{
		"provider":      handler.checkProvider(),
		"prompts":       handler.checkPrompts(),
		"database":      handler.checkDatabase(request.Context()),
		"configuration": handler.checkConfig(),
	}

	response := ReadinessResponse{Status: "ready", Service: "interviewer", Checks: checks}
	status := http.StatusOK
	for _, check := range checks {
		if check.Status != "ok" {
			response.Status = "not_ready"
			status = http.StatusServiceUnavailable
			break
		}
	}
	utils.JSON(writer, status, response)
}

func (handler *HealthHandler) checkProvider() ReadinessCheck {
	if handler.provider == nil {
		return ReadinessCheck{Status: "failed", Message: "AI provider not initialized"}
	}
	return ReadinessCheck{Status: "ok", Message: handler.provider.GetProviderName()}
}

func (handler *HealthHandler) checkPrompts() ReadinessCheck {
	if handler.prompts == nil {
		return ReadinessCheck{Status: "failed", Message: "Prompt provider not initialized"}
	}
	for _, stage := range prompts.Stages() {
		if _, err := handler.prompts.Builtin(stage); err != nil {
			return ReadinessCheck{Status: "failed", Message: err.Error()}
		}
	}
	return ReadinessCheck{Status: "ok"}
}

func (handler *HealthHandler) checkDatabase(ctx context.Context) ReadinessCheck {
	if handler.db == nil {
		return ReadinessCheck{Status: "failed", Message: "Database not connected"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := handler.db.PingContext(ctx); err != nil {
		return ReadinessCheck{Status: "failed", Message: err.Error()}
	}
	return ReadinessCheck{Status: "ok"}
}

func (handler *HealthHandler) checkConfig() ReadinessCheck {
	if handler.config == nil {
		return ReadinessCheck{Status: "failed", Message: "Configuration not loaded"}
	}
	return ReadinessCheck{Status: "ok"}
}
