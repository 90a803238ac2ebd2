// Package pipeline orchestrates the slide analysis workflow: classification,
// batched rendering, parallel observation generation and sequential headline
// generation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sumitkamra20/insightgen/internal/config"
	"github.com/sumitkamra20/insightgen/internal/deck"
	"github.com/sumitkamra20/insightgen/internal/domain"
	"github.com/sumitkamra20/insightgen/internal/generator"
	"github.com/sumitkamra20/insightgen/internal/observability"
)

// Pipeline runs the full analysis workflow for one deck at a time. Safe for
// concurrent Run calls; all per-run state lives on the stack.
type Pipeline struct {
	logger      *observability.Logger
	registry    *generator.Registry
	completions domain.CompletionService
	defaults    config.PipelineConfig
}

// New creates a pipeline.
func New(logger *observability.Logger, registry *generator.Registry, completions domain.CompletionService, defaults config.PipelineConfig) *Pipeline {
	return &Pipeline{
		logger:      logger.WithOperation("pipeline"),
		registry:    registry,
		completions: completions,
		defaults:    defaults,
	}
}

// Request describes one pipeline run. UserPrompt carries the caller's
// market/brand context and is attached to every observation call.
type Request struct {
	Deck        domain.DeckSource
	Pages       domain.PageImageSource
	GeneratorID string // empty selects the default generator
	UserPrompt  string
	Overrides   Overrides
}

// Result is the outcome of one pipeline run.
type Result struct {
	Slides  *domain.SlideMap
	Metrics domain.PipelineMetrics
}

// Run executes the workflow. Fatal conditions (unknown generator, malformed
// deck, deck/page mismatch, cancellation) return an error; per-slide
// generation failures are recorded on the affected records and surface only
// in the metrics.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	def, err := p.registry.Resolve(req.GeneratorID)
	if err != nil {
		return nil, err
	}

	cfg := ResolveConfig(p.defaults, def.Workflow, req.Overrides)

	p.logger.Info().
		Str("generator_id", def.ID).
		Int("batch_size", cfg.BatchSize).
		Int("parallelism", cfg.Parallelism).
		Int("context_window", cfg.ContextWindowSize).
		Msg("Pipeline run started")

	slides, err := deck.Classify(req.Deck)
	if err != nil {
		return nil, err
	}

	if got := req.Pages.PageCount(); got != slides.Len() {
		return nil, domain.MalformedDeckError(
			fmt.Sprintf("deck has %d slides but document has %d pages", slides.Len(), got), nil)
	}

	metrics := domain.PipelineMetrics{
		GeneratorID:      def.ID,
		GeneratorName:    def.Name,
		GeneratorVersion: def.Version,
		TotalSlides:      slides.Len(),
		ContentSlides:    len(slides.ContentIndices()),
		StartTime:        start,
	}

	obs, err := p.runObservations(ctx, slides, req.Pages, def.Observations, req.UserPrompt, cfg)
	if err != nil {
		return nil, err
	}

	headSpec := def.Headlines
	if req.Overrides.FewShotExamples != "" {
		headSpec.FewShotExamples = req.Overrides.FewShotExamples
	}
	headSpec.AdditionalInstructions = req.Overrides.AdditionalInstructions

	heads, err := p.runHeadlines(ctx, slides, headSpec, cfg)
	if err != nil {
		return nil, err
	}

	metrics.SlidesProcessed = obs.Processed
	metrics.ObservationsGenerated = obs.Generated
	metrics.HeadlinesGenerated = heads.Generated
	metrics.Errors = obs.Errors + heads.Errors
	metrics.Finish(time.Now())

	p.logger.Info().
		Str("generator_id", def.ID).
		Int("total_slides", metrics.TotalSlides).
		Int("content_slides", metrics.ContentSlides).
		Int("observations", metrics.ObservationsGenerated).
		Int("headlines", metrics.HeadlinesGenerated).
		Int("errors", metrics.Errors).
		Dur("duration", metrics.TotalDuration).
		Msg("Pipeline run finished")

	return &Result{Slides: slides, Metrics: metrics}, nil
}
