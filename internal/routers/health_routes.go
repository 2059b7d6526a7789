package routers

import (
	"github.com/go-chi/chi/v5"

	"vetting/interviewer/internal/handlers"
	"vetting/interviewer/internal/metrics"
)

func HealthRoutes(router chi.Router, healthHandler *handlers.HealthHandler) {
	router.Get("/healthz", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	router.Handle("/metrics", metrics.Handler())
}
