// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sumitkamra20/insightgen/internal/config"
	"github.com/sumitkamra20/insightgen/internal/generator"
	"github.com/sumitkamra20/insightgen/internal/jobs"
	"github.com/sumitkamra20/insightgen/internal/observability"
	"github.com/sumitkamra20/insightgen/internal/pipeline"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, registry *generator.Registry, pipe *pipeline.Pipeline, manager *jobs.Manager) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	h := NewHandler(logger, cfg, registry, pipe, manager)

	r.Get("/health", h.Health)

	r.Post("/upload-and-process", h.UploadAndProcess)
	r.Post("/inspect-files", h.InspectFiles)

	r.Get("/jobs", h.ListJobs)
	r.Get("/job-status/{jobID}", h.JobStatus)
	r.Get("/download/{jobID}", h.Download)
	r.Delete("/job/{jobID}", h.DeleteJob)

	r.Get("/generators", h.ListGenerators)
	r.Get("/generators/{generatorID}", h.GetGenerator)

	return r
}
