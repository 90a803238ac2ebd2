package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sumitkamra20/insightgen/internal/domain"
)

const observationUserText = "Analyze this slide image and generate detailed observations following your instructions."

// window is one contiguous batch of slide indices rendered together.
type window struct {
	start int // 1-based first slide index
	count int
}

// partitionWindows splits 1..total into contiguous windows of at most size.
func partitionWindows(total, size int) []window {
	if total < 1 {
		return nil
	}
	if size < 1 {
		size = 1
	}

	var windows []window
	for start := 1; start <= total; start += size {
		count := size
		if start+count-1 > total {
			count = total - start + 1
		}
		windows = append(windows, window{start: start, count: count})
	}
	return windows
}

// observationResult is one worker's outcome, applied to the slide map by the
// collecting goroutine only.
type observationResult struct {
	slideIndex  int
	observation string
	err         error
}

// runObservations generates observations for every content slide, batch by
// batch. Each batch's pages are rendered together, then fanned out to at most
// cfg.Parallelism concurrent completion calls. Rendered images are dropped as
// soon as their batch completes. Per-slide failures are recorded on the slide
// and never abort the stage; only context cancellation is returned as an
// error.
func (p *Pipeline) runObservations(ctx context.Context, slides *domain.SlideMap, pages domain.PageImageSource, spec domain.PromptSpec, userPrompt string, cfg ResolvedConfig) (domain.StageMetrics, error) {
	var metrics domain.StageMetrics

	userText := observationUserText
	if userPrompt != "" {
		userText = userPrompt + "\n\n" + observationUserText
	}

	for _, win := range partitionWindows(slides.Len(), cfg.BatchSize) {
		content := contentIndicesIn(slides, win)
		if len(content) == 0 {
			continue
		}

		images, err := pages.RenderRange(ctx, win.start, win.count)
		if err != nil {
			if ctx.Err() != nil {
				return metrics, ctx.Err()
			}

			p.logger.Error().Err(err).Int("start_slide", win.start).Int("count", win.count).
				Msg("Batch rendering failed, marking its content slides as errored")

			for _, idx := range content {
				rec := slides.Get(idx)
				rec.Status = domain.StatusError
				rec.ErrorDetail = truncateError(err)
				metrics.Processed++
				metrics.Errors++
			}
			continue
		}

		for _, idx := range content {
			if _, ok := images[idx]; ok {
				slides.Get(idx).Status = domain.StatusImageReady
			}
		}

		results := make(chan observationResult, len(content))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Parallelism)

		for _, idx := range content {
			idx := idx
			img, ok := images[idx]

			g.Go(func() error {
				if !ok {
					results <- observationResult{slideIndex: idx, err: domain.RenderError("no rendered image for slide", nil)}
					return nil
				}

				text, err := p.completions.Complete(gctx, domain.CompletionRequest{
					SystemPrompt: spec.SystemPrompt,
					UserText:     userText,
					ImageData:    img.Data,
					Model:        spec.Model,
					Temperature:  spec.Temperature,
					MaxTokens:    spec.MaxTokens,
				})
				results <- observationResult{slideIndex: idx, observation: text, err: err}
				return nil
			})
		}

		// Workers report failures through the results channel, never as
		// group errors. Cancellation is checked after collection.
		_ = g.Wait()
		close(results)

		for res := range results {
			rec := slides.Get(res.slideIndex)
			metrics.Processed++

			if res.err != nil {
				rec.Status = domain.StatusError
				rec.ErrorDetail = truncateError(res.err)
				metrics.Errors++
				p.logger.Warn().Err(res.err).Int("slide", res.slideIndex).
					Msg("Observation generation failed")
				continue
			}

			rec.ObservationText = res.observation
			rec.Status = domain.StatusObservationReady
			metrics.Generated++
		}

		if ctx.Err() != nil {
			return metrics, ctx.Err()
		}

		p.logger.Info().Int("start_slide", win.start).Int("count", win.count).
			Int("content_slides", len(content)).Msg("Observation batch completed")
	}

	return metrics, nil
}

func contentIndicesIn(slides *domain.SlideMap, win window) []int {
	var out []int
	for idx := win.start; idx < win.start+win.count; idx++ {
		if rec := slides.Get(idx); rec != nil && rec.IsContentSlide {
			out = append(out, idx)
		}
	}
	return out
}
