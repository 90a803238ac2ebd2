package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumitkamra20/insightgen/internal/config"
	"github.com/sumitkamra20/insightgen/internal/deck"
	"github.com/sumitkamra20/insightgen/internal/domain"
	"github.com/sumitkamra20/insightgen/internal/generator"
	"github.com/sumitkamra20/insightgen/internal/observability"
)

// fakeDeck is a scripted DeckSource.
type fakeDeck struct {
	slides []domain.SlideInfo
}

func (f *fakeDeck) ListSlides() ([]domain.SlideInfo, error) {
	return f.slides, nil
}

// fakePages is a scripted PageImageSource that records render windows.
type fakePages struct {
	mu          sync.Mutex
	pageCount   int
	renderCalls []window
	failWindow  int // 1-based start page of a window that fails, 0 for none
	missing     map[int]bool
}

func (f *fakePages) PageCount() int { return f.pageCount }

func (f *fakePages) RenderRange(ctx context.Context, startPage, pageCount int) (map[int]domain.RenderedImage, error) {
	f.mu.Lock()
	f.renderCalls = append(f.renderCalls, window{start: startPage, count: pageCount})
	f.mu.Unlock()

	if f.failWindow == startPage {
		return nil, domain.RenderError("page rasterization failed", nil)
	}

	images := make(map[int]domain.RenderedImage, pageCount)
	for page := startPage; page < startPage+pageCount; page++ {
		if f.missing[page] {
			continue
		}
		images[page] = domain.RenderedImage{
			SlideIndex: page,
			Data:       []byte(fmt.Sprintf("jpeg-%d", page)),
			Width:      1280,
			Height:     720,
		}
	}
	return images, nil
}

func (f *fakePages) Close() error { return nil }

// fakeCompletions is a scripted CompletionService that records every request.
type fakeCompletions struct {
	mu       sync.Mutex
	requests []domain.CompletionRequest
	respond  func(req domain.CompletionRequest) (string, error)
}

func (f *fakeCompletions) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.respond != nil {
		return f.respond(req)
	}
	if len(req.ImageData) > 0 {
		return "observation for " + string(req.ImageData), nil
	}
	return "a headline", nil
}

func (f *fakeCompletions) recorded() []domain.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.CompletionRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

type sliceSource struct {
	docs map[string][]byte
}

func (s *sliceSource) Load() (map[string][]byte, error) { return s.docs, nil }
func (s *sliceSource) Name() string                     { return "test" }

const testGeneratorDoc = `
id: BGS_Default
name: Test Generator
description: Generator used in pipeline tests
version: "1.0"
prompts:
  observations:
    system_prompt: Observe the slide.
  headlines:
    system_prompt: Write the headline.
`

func testRegistry(t *testing.T) *generator.Registry {
	t.Helper()

	reg, err := generator.NewRegistry(observability.Nop(), &sliceSource{docs: map[string][]byte{
		"bgs_default.yaml": []byte(testGeneratorDoc),
	}}, generator.Defaults{Model: "gpt-4o", Temperature: 0.5, MaxTokens: 1000})
	require.NoError(t, err)
	return reg
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{BatchSize: 10, Parallelism: 5, ContextWindowSize: 20}
}

func newTestPipeline(t *testing.T, completions domain.CompletionService) *Pipeline {
	t.Helper()
	return New(observability.Nop(), testRegistry(t), completions, testPipelineConfig())
}

func contentDeck(n int, headers ...int) *fakeDeck {
	isHeader := make(map[int]bool)
	for _, h := range headers {
		isHeader[h] = true
	}

	deck := &fakeDeck{}
	for i := 1; i <= n; i++ {
		layout := "Title and Content"
		if isHeader[i] {
			layout = "HEADER Section"
		}
		deck.slides = append(deck.slides, domain.SlideInfo{LayoutName: layout, HasTitlePlaceholder: true})
	}
	return deck
}

func TestResolveConfigPrecedence(t *testing.T) {
	defaults := config.PipelineConfig{BatchSize: 10, Parallelism: 5, ContextWindowSize: 20}

	t.Run("defaults only", func(t *testing.T) {
		cfg := ResolveConfig(defaults, domain.WorkflowSpec{}, Overrides{})
		assert.Equal(t, ResolvedConfig{ContextWindowSize: 20, Parallelism: 5, BatchSize: 10}, cfg)
	})

	t.Run("workflow beats defaults", func(t *testing.T) {
		cfg := ResolveConfig(defaults, domain.WorkflowSpec{Parallelism: 3, BatchSize: 4}, Overrides{})
		assert.Equal(t, 3, cfg.Parallelism)
		assert.Equal(t, 4, cfg.BatchSize)
		assert.Equal(t, 20, cfg.ContextWindowSize)
	})

	t.Run("overrides beat workflow", func(t *testing.T) {
		cfg := ResolveConfig(defaults, domain.WorkflowSpec{Parallelism: 3}, Overrides{Parallelism: 8})
		assert.Equal(t, 8, cfg.Parallelism)
	})
}

func TestPartitionWindows(t *testing.T) {
	tests := []struct {
		name  string
		total int
		size  int
		want  []window
	}{
		{"even split", 20, 10, []window{{1, 10}, {11, 10}}},
		{"remainder window", 25, 10, []window{{1, 10}, {11, 10}, {21, 5}}},
		{"single window", 7, 10, []window{{1, 7}}},
		{"empty", 0, 10, nil},
		{"size floor", 3, 0, []window{{1, 1}, {2, 1}, {3, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, partitionWindows(tt.total, tt.size))
		})
	}
}

func TestObservationsBatchesAndIsolation(t *testing.T) {
	completions := &fakeCompletions{respond: func(req domain.CompletionRequest) (string, error) {
		if string(req.ImageData) == "jpeg-3" {
			return "", domain.CompletionError("model unavailable", nil)
		}
		return "obs " + string(req.ImageData), nil
	}}

	p := newTestPipeline(t, completions)

	slides, err := deck.Classify(contentDeck(6, 1))
	require.NoError(t, err)

	pages := &fakePages{pageCount: 6, missing: map[int]bool{5: true}}
	spec := domain.PromptSpec{SystemPrompt: "observe", Model: "gpt-4o"}

	metrics, err := p.runObservations(context.Background(), slides, pages, spec, "", ResolvedConfig{BatchSize: 2, Parallelism: 2, ContextWindowSize: 20})
	require.NoError(t, err)

	assert.Equal(t, []window{{1, 2}, {3, 2}, {5, 2}}, pages.renderCalls)

	// 5 content slides attempted: 2, 4, 6 succeed; 3 fails; 5 has no image.
	assert.Equal(t, 5, metrics.Processed)
	assert.Equal(t, 3, metrics.Generated)
	assert.Equal(t, 2, metrics.Errors)

	assert.Equal(t, domain.StatusObservationReady, slides.Get(2).Status)
	assert.Equal(t, "obs jpeg-2", slides.Get(2).ObservationText)

	assert.Equal(t, domain.StatusError, slides.Get(3).Status)
	assert.Contains(t, slides.Get(3).ErrorDetail, "model unavailable")

	assert.Equal(t, domain.StatusError, slides.Get(5).Status)
	assert.Contains(t, slides.Get(5).ErrorDetail, "no rendered image")

	// The header never reaches the completion service.
	for _, req := range completions.recorded() {
		assert.NotEqual(t, "jpeg-1", string(req.ImageData))
	}
}

func TestObservationsRenderFailureMarksWindow(t *testing.T) {
	completions := &fakeCompletions{}
	p := newTestPipeline(t, completions)

	slides, err := deck.Classify(contentDeck(4))
	require.NoError(t, err)

	pages := &fakePages{pageCount: 4, failWindow: 1}
	spec := domain.PromptSpec{SystemPrompt: "observe", Model: "gpt-4o"}

	metrics, err := p.runObservations(context.Background(), slides, pages, spec, "", ResolvedConfig{BatchSize: 2, Parallelism: 2, ContextWindowSize: 20})
	require.NoError(t, err)

	// First window errored wholesale, second succeeded.
	assert.Equal(t, 2, metrics.Errors)
	assert.Equal(t, 2, metrics.Generated)
	assert.Equal(t, domain.StatusError, slides.Get(1).Status)
	assert.Equal(t, domain.StatusError, slides.Get(2).Status)
	assert.Equal(t, domain.StatusObservationReady, slides.Get(3).Status)
}

func TestHeadlinesSequentialWithContext(t *testing.T) {
	var order []int
	completions := &fakeCompletions{respond: func(req domain.CompletionRequest) (string, error) {
		// UserText names the slide; recover its index for ordering checks.
		var idx int
		_, err := fmt.Sscanf(req.UserText[strings.Index(req.UserText, "slide "):], "slide %d:", &idx)
		if err != nil {
			return "", err
		}
		order = append(order, idx)
		return fmt.Sprintf("headline %d", idx), nil
	}}

	p := newTestPipeline(t, completions)

	slides := domain.NewSlideMap()
	for i := 1; i <= 4; i++ {
		slides.Add(&domain.SlideRecord{
			Index:           i,
			IsContentSlide:  true,
			ObservationText: fmt.Sprintf("observation %d", i),
			Status:          domain.StatusObservationReady,
		})
	}

	spec := domain.HeadlinePromptSpec{PromptSpec: domain.PromptSpec{SystemPrompt: "headline", Model: "gpt-4o"}}

	metrics, err := p.runHeadlines(context.Background(), slides, spec, ResolvedConfig{ContextWindowSize: 2, Parallelism: 5, BatchSize: 10})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, order)
	assert.Equal(t, 4, metrics.Generated)
	assert.Equal(t, "headline 3", slides.Get(3).HeadlineText)
	assert.Equal(t, domain.StatusHeadlineReady, slides.Get(3).Status)

	// The 4th call sees only the 2 most recent headlines.
	reqs := completions.recorded()
	require.Len(t, reqs, 4)
	last := reqs[3].UserText
	assert.NotContains(t, last, "headline 1")
	assert.Contains(t, last, "headline 2")
	assert.Contains(t, last, "headline 3")
}

func TestHeadlinesFailureSentinel(t *testing.T) {
	completions := &fakeCompletions{respond: func(req domain.CompletionRequest) (string, error) {
		if strings.Contains(req.UserText, "observation 2") {
			return "", errors.New("timeout")
		}
		return "ok headline", nil
	}}

	p := newTestPipeline(t, completions)

	slides := domain.NewSlideMap()
	for i := 1; i <= 3; i++ {
		slides.Add(&domain.SlideRecord{
			Index:           i,
			IsContentSlide:  true,
			ObservationText: fmt.Sprintf("observation %d", i),
			Status:          domain.StatusObservationReady,
		})
	}

	spec := domain.HeadlinePromptSpec{PromptSpec: domain.PromptSpec{SystemPrompt: "headline", Model: "gpt-4o"}}

	metrics, err := p.runHeadlines(context.Background(), slides, spec, ResolvedConfig{ContextWindowSize: 20, Parallelism: 5, BatchSize: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.Generated)
	assert.Equal(t, 1, metrics.Errors)
	assert.Equal(t, domain.FailedHeadlineText, slides.Get(2).HeadlineText)
	assert.Equal(t, domain.StatusError, slides.Get(2).Status)

	// The failed slide never enters the narrative context of slide 3.
	reqs := completions.recorded()
	last := reqs[len(reqs)-1].UserText
	assert.NotContains(t, last, domain.FailedHeadlineText)
}

func TestHeadlinesSkipSlidesWithoutObservation(t *testing.T) {
	completions := &fakeCompletions{}
	p := newTestPipeline(t, completions)

	slides := domain.NewSlideMap()
	slides.Add(&domain.SlideRecord{Index: 1, IsContentSlide: true, Status: domain.StatusError, ErrorDetail: "render failed"})
	slides.Add(&domain.SlideRecord{Index: 2, IsContentSlide: true, ObservationText: "observation 2", Status: domain.StatusObservationReady})

	spec := domain.HeadlinePromptSpec{PromptSpec: domain.PromptSpec{SystemPrompt: "headline", Model: "gpt-4o"}}

	metrics, err := p.runHeadlines(context.Background(), slides, spec, ResolvedConfig{ContextWindowSize: 20, Parallelism: 5, BatchSize: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.Processed)
	assert.Len(t, completions.recorded(), 1)
	assert.Empty(t, slides.Get(1).HeadlineText)
}

func TestCleanHeadline(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Plain headline", "Plain headline"},
		{"Headline: Stripped label", "Stripped label"},
		{`"Quoted headline"`, "Quoted headline"},
		{"**Bold headline**", "Bold headline"},
		{"First line\nSecond line", "First line"},
		{"   padded   ", "padded"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanHeadline(tt.in), "input %q", tt.in)
	}
}

func TestPipelineRunEndToEnd(t *testing.T) {
	completions := &fakeCompletions{respond: func(req domain.CompletionRequest) (string, error) {
		if len(req.ImageData) > 0 {
			return "observation from " + string(req.ImageData), nil
		}
		return "narrative headline", nil
	}}

	p := newTestPipeline(t, completions)

	result, err := p.Run(context.Background(), Request{
		Deck:  contentDeck(6, 1),
		Pages: &fakePages{pageCount: 6},
	})
	require.NoError(t, err)

	m := result.Metrics
	assert.Equal(t, "BGS_Default", m.GeneratorID)
	assert.Equal(t, 6, m.TotalSlides)
	assert.Equal(t, 5, m.ContentSlides)
	assert.Equal(t, 5, m.ObservationsGenerated)
	assert.Equal(t, 5, m.HeadlinesGenerated)
	assert.Equal(t, 0, m.Errors)
	assert.False(t, m.EndTime.IsZero())

	assert.Equal(t, domain.HeaderSlideHeadline, result.Slides.Get(1).HeadlineText)
	assert.Equal(t, "narrative headline", result.Slides.Get(2).HeadlineText)
	assert.Equal(t, domain.StatusHeadlineReady, result.Slides.Get(2).Status)
}

func TestPipelineRunFatalErrors(t *testing.T) {
	p := newTestPipeline(t, &fakeCompletions{})

	t.Run("unknown generator", func(t *testing.T) {
		_, err := p.Run(context.Background(), Request{
			Deck:        contentDeck(2),
			Pages:       &fakePages{pageCount: 2},
			GeneratorID: "missing",
		})
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindGeneratorMissing))
	})

	t.Run("page count mismatch", func(t *testing.T) {
		_, err := p.Run(context.Background(), Request{
			Deck:  contentDeck(3),
			Pages: &fakePages{pageCount: 5},
		})
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindMalformedDeck))
	})
}

func TestHeadlineSystemPromptAssembly(t *testing.T) {
	spec := domain.HeadlinePromptSpec{
		PromptSpec:             domain.PromptSpec{SystemPrompt: "Write headlines."},
		KnowledgeBase:          "Brand Power basics.",
		FewShotExamples:        "Example one.",
		AdditionalInstructions: "Focus on client brands.",
	}

	prompt := headlineSystemPrompt(spec)

	assert.Contains(t, prompt, "Write headlines.")
	assert.Contains(t, prompt, "## Domain Knowledge\nBrand Power basics.")
	assert.Contains(t, prompt, "## Examples\nExample one.")
	assert.Contains(t, prompt, "## Additional Instructions\nFocus on client brands.")

	bare := headlineSystemPrompt(domain.HeadlinePromptSpec{PromptSpec: domain.PromptSpec{SystemPrompt: "Write headlines."}})
	assert.Equal(t, "Write headlines.", bare)
}

func TestPipelineRunAppliesPromptOverrides(t *testing.T) {
	completions := &fakeCompletions{}
	p := newTestPipeline(t, completions)

	_, err := p.Run(context.Background(), Request{
		Deck:       contentDeck(2),
		Pages:      &fakePages{pageCount: 2},
		UserPrompt: "Market: Vietnam. Category: Beer.",
		Overrides: Overrides{
			FewShotExamples:        "Override example.",
			AdditionalInstructions: "Keep it under 40 words.",
		},
	})
	require.NoError(t, err)

	var sawVision, sawHeadline bool
	for _, req := range completions.recorded() {
		if len(req.ImageData) > 0 {
			sawVision = true
			assert.Contains(t, req.UserText, "Market: Vietnam. Category: Beer.")
		} else {
			sawHeadline = true
			assert.Contains(t, req.SystemPrompt, "Override example.")
			assert.Contains(t, req.SystemPrompt, "Keep it under 40 words.")
		}
	}
	assert.True(t, sawVision)
	assert.True(t, sawHeadline)
}

func TestPipelineRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	completions := &fakeCompletions{respond: func(req domain.CompletionRequest) (string, error) {
		cancel()
		return "", ctx.Err()
	}}

	p := newTestPipeline(t, completions)

	_, err := p.Run(ctx, Request{
		Deck:  contentDeck(4),
		Pages: &fakePages{pageCount: 4},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
