package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sumitkamra20/insightgen/internal/artifact"
	"github.com/sumitkamra20/insightgen/internal/config"
	"github.com/sumitkamra20/insightgen/internal/deck"
	"github.com/sumitkamra20/insightgen/internal/domain"
	"github.com/sumitkamra20/insightgen/internal/generator"
	"github.com/sumitkamra20/insightgen/internal/jobs"
	"github.com/sumitkamra20/insightgen/internal/observability"
	"github.com/sumitkamra20/insightgen/internal/pipeline"
	"github.com/sumitkamra20/insightgen/internal/render"
)

// Handler bundles the API's HTTP handlers and their dependencies.
type Handler struct {
	logger   *observability.Logger
	cfg      *config.Config
	registry *generator.Registry
	pipe     *pipeline.Pipeline
	manager  *jobs.Manager
	sink     *artifact.JSONWriter
}

// NewHandler creates the handler set.
func NewHandler(logger *observability.Logger, cfg *config.Config, registry *generator.Registry, pipe *pipeline.Pipeline, manager *jobs.Manager) *Handler {
	return &Handler{
		logger:   logger.WithOperation("api"),
		cfg:      cfg,
		registry: registry,
		pipe:     pipe,
		manager:  manager,
		sink:     artifact.NewJSONWriter(),
	}
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "insightgen",
	})
}

// uploadPair is the parsed and validated multipart upload.
type uploadPair struct {
	manifest     *deck.ManifestSource
	manifestName string
	pages        *render.PageSource
	pdfName      string
	warnings     []string
}

// parseUpload reads the manifest and PDF parts of a multipart request and
// validates the pairing. On success the caller owns pages and must close it.
func (h *Handler) parseUpload(r *http.Request) (*uploadPair, error) {
	if err := r.ParseMultipartForm(h.cfg.Server.MaxUploadBytes); err != nil {
		return nil, domain.MalformedDeckError("invalid multipart upload", err)
	}

	manifestData, manifestName, err := formFileBytes(r, "manifest")
	if err != nil {
		return nil, err
	}

	pdfData, pdfName, err := formFileBytes(r, "document")
	if err != nil {
		return nil, err
	}

	src, err := deck.NewManifestSource(manifestData)
	if err != nil {
		return nil, err
	}

	pages, err := render.NewPageSource(pdfData, render.Options{
		DPI:         h.cfg.Render.DPI,
		JPEGQuality: h.cfg.Render.JPEGQuality,
	})
	if err != nil {
		return nil, err
	}

	warnings, err := deck.ValidatePair(src, pages.PageCount(), manifestName, pdfName)
	if err != nil {
		_ = pages.Close()
		return nil, err
	}

	return &uploadPair{
		manifest:     src,
		manifestName: manifestName,
		pages:        pages,
		pdfName:      pdfName,
		warnings:     warnings,
	}, nil
}

// UploadAndProcess accepts a deck manifest plus its PDF rendition and starts
// an analysis job.
func (h *Handler) UploadAndProcess(w http.ResponseWriter, r *http.Request) {
	up, err := h.parseUpload(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	generatorID := r.FormValue("generator_id")
	if generatorID != "" {
		if _, err := h.registry.Get(generatorID); err != nil {
			_ = up.pages.Close()
			h.writeError(w, err)
			return
		}
	}

	overrides := pipeline.Overrides{
		BatchSize:              formInt(r, "batch_size"),
		Parallelism:            formInt(r, "parallelism"),
		ContextWindowSize:      formInt(r, "context_window_size"),
		FewShotExamples:        r.FormValue("few_shot_examples"),
		AdditionalInstructions: r.FormValue("additional_instructions"),
	}

	req := pipeline.Request{
		Deck:        up.manifest,
		Pages:       up.pages,
		GeneratorID: generatorID,
		UserPrompt:  r.FormValue("user_prompt"),
		Overrides:   overrides,
	}

	snap := h.manager.Submit(up.pdfName, generatorID, func(ctx context.Context) (*jobs.Outcome, error) {
		defer up.pages.Close()

		result, err := h.pipe.Run(ctx, req)
		if err != nil {
			return nil, err
		}

		filename, content, err := h.sink.Write(ctx, up.pdfName, result.Slides)
		if err != nil {
			return nil, err
		}

		return &jobs.Outcome{
			Metrics:  result.Metrics,
			Artifact: jobs.Artifact{Filename: filename, Content: content},
		}, nil
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"warnings": up.warnings,
	})
}

// InspectFiles validates a manifest/PDF pair without starting a job.
func (h *Handler) InspectFiles(w http.ResponseWriter, r *http.Request) {
	up, err := h.parseUpload(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer up.pages.Close()

	slides, err := deck.Classify(up.manifest)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":          true,
		"total_slides":   slides.Len(),
		"content_slides": len(slides.ContentIndices()),
		"page_count":     up.pages.PageCount(),
		"warnings":       up.warnings,
	})
}

// JobStatus returns the current state of one job.
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.manager.Get(chi.URLParam(r, "jobID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Download streams the artifact of a completed job.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	art, ok := h.manager.Artifact(jobID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no artifact for job"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Content)
}

// ListJobs returns all retained jobs, newest first.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"jobs": h.manager.List()})
}

// DeleteJob cancels and removes one job.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !h.manager.Delete(jobID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID, "status": "deleted"})
}

// ListGenerators returns summaries of all loaded generators.
func (h *Handler) ListGenerators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"generators": h.registry.List()})
}

// GetGenerator returns one generator's metadata and workflow parameters.
func (h *Handler) GetGenerator(w http.ResponseWriter, r *http.Request) {
	def, err := h.registry.Get(chi.URLParam(r, "generatorID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          def.ID,
		"name":        def.Name,
		"description": def.Description,
		"version":     def.Version,
		"models": map[string]string{
			"observations": def.Observations.Model,
			"headlines":    def.Headlines.Model,
		},
		"workflow": map[string]int{
			"context_window_size": def.Workflow.ContextWindowSize,
			"parallelism":         def.Workflow.Parallelism,
			"batch_size":          def.Workflow.BatchSize,
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case domain.IsKind(err, domain.KindMalformedDeck),
		domain.IsKind(err, domain.KindConfigValidation):
		status = http.StatusBadRequest
	case domain.IsKind(err, domain.KindGeneratorMissing):
		status = http.StatusNotFound
	case domain.IsKind(err, domain.KindNoGenerators):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Request failed")
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func formFileBytes(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", domain.MalformedDeckError(fmt.Sprintf("missing upload field %q", field), err)
	}
	defer closeQuietly(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", domain.IOError(fmt.Sprintf("read upload field %q", field), err)
	}

	return data, header.Filename, nil
}

func formInt(r *http.Request, field string) int {
	v := r.FormValue(field)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func closeQuietly(f multipart.File) {
	_ = f.Close()
}
