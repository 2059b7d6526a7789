package routers

import (
	"github.com/go-chi/chi/v5"

	"vetting/interviewer/internal/handlers"
	"vetting/interviewer/internal/middleware"
	"vetting/interviewer/internal/models"
)

// AdminRoutes mounts the prompt administration endpoints. They are unauthenticated and must only be
// reachable from the operator network or behind an authenticating gateway.
func AdminRoutes(router chi.Router, prompts *handlers.PromptHandler) {
	router.Route("/api/v1/admin", func(r chi.Router) {
		r.Get("/prompts/{stage}", prompts.GetPromptHandler)
		r.With(middleware.ValidateRequest[*models.PromptUpdateRequest]()).Put("/prompts/{stage}", prompts.UpdatePromptHandler)
	})
}
