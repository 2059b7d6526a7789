package routers

import (
	"github.com/go-chi/chi/v5"

	"vetting/interviewer/internal/handlers"
	"vetting/interviewer/internal/middleware"
	"vetting/interviewer/internal/models"
)

// InterviewRoutes registers the candidate facing API. Chat and end need the session token
// returned by auth.
func InterviewRoutes(router chi.Router, h *handlers.InterviewHandler, reports *handlers.ReportHandler, tokens middleware.TokenVerifier) {
	router.Route("/api/v1/interview", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.AuthRequest]()).Post("/auth", h.AuthHandler)
		r.With(middleware.ValidateRequest[*models.StartSessionRequest]()).Post("/sessions", h.StartHandler)
		r.Get("/sessions/{session_id}", h.GetSessionHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSessionToken(tokens))
			r.With(middleware.ValidateRequest[*models.ChatRequest]()).Post("/sessions/{session_id}/chat", h.ChatHandler)
			r.Post("/sessions/{session_id}/end", h.EndHandler)
		})

		r.Get("/candidates/{candidate_id}/report", reports.GetReportHandler)
	})
}
