package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sumitkamra20/insightgen/internal/domain"
)

const maxErrorDetailLen = 300

// runHeadlines generates the headline for every slide that has an
// observation, strictly in ascending slide order. Each accepted headline is
// appended to a sliding context window that grounds the following calls, so
// the deck reads as one continuous narrative. Failed slides get the failure
// sentinel and are excluded from the context.
func (p *Pipeline) runHeadlines(ctx context.Context, slides *domain.SlideMap, spec domain.HeadlinePromptSpec, cfg ResolvedConfig) (domain.StageMetrics, error) {
	var metrics domain.StageMetrics

	history := domain.NewHeadlineContext(cfg.ContextWindowSize)

	for _, idx := range slides.ContentIndices() {
		if err := ctx.Err(); err != nil {
			return metrics, err
		}

		rec := slides.Get(idx)
		if rec.Status != domain.StatusObservationReady || rec.ObservationText == "" {
			// No observation to work from; the record already carries its error.
			continue
		}

		metrics.Processed++

		text, err := p.completions.Complete(ctx, domain.CompletionRequest{
			SystemPrompt: headlineSystemPrompt(spec),
			UserText:     headlineUserPrompt(rec, history),
			Model:        spec.Model,
			Temperature:  spec.Temperature,
			MaxTokens:    spec.MaxTokens,
		})
		if err != nil {
			if ctx.Err() != nil {
				return metrics, ctx.Err()
			}

			rec.HeadlineText = domain.FailedHeadlineText
			rec.Status = domain.StatusError
			rec.ErrorDetail = truncateError(err)
			metrics.Errors++
			p.logger.Warn().Err(err).Int("slide", idx).Msg("Headline generation failed")
			continue
		}

		headline := cleanHeadline(text)
		if headline == "" {
			rec.HeadlineText = domain.FailedHeadlineText
			rec.Status = domain.StatusError
			rec.ErrorDetail = "empty headline returned"
			metrics.Errors++
			continue
		}

		rec.HeadlineText = headline
		rec.Status = domain.StatusHeadlineReady
		metrics.Generated++

		history.Append(idx, headline)
	}

	return metrics, nil
}

// headlineSystemPrompt assembles the full system prompt for headline calls
// from the generator's instructions, knowledge base and few-shot examples.
func headlineSystemPrompt(spec domain.HeadlinePromptSpec) string {
	var b strings.Builder
	b.WriteString(spec.SystemPrompt)

	if spec.KnowledgeBase != "" {
		b.WriteString("\n\n## Domain Knowledge\n")
		b.WriteString(spec.KnowledgeBase)
	}

	if spec.FewShotExamples != "" {
		b.WriteString("\n\n## Examples\n")
		b.WriteString(spec.FewShotExamples)
	}

	if spec.AdditionalInstructions != "" {
		b.WriteString("\n\n## Additional Instructions\n")
		b.WriteString(spec.AdditionalInstructions)
	}

	return b.String()
}

// headlineUserPrompt builds the per-slide user message: the preceding
// headlines for narrative continuity, then the slide's observations.
func headlineUserPrompt(rec *domain.SlideRecord, history *domain.HeadlineContext) string {
	var b strings.Builder

	if history.Len() > 0 {
		b.WriteString("Headlines of the preceding slides, oldest first:\n")
		for _, entry := range history.Entries() {
			fmt.Fprintf(&b, "Slide %d: %s\n", entry.SlideIndex, entry.Headline)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Observations for slide %d:\n%s\n\n", rec.Index, rec.ObservationText)
	b.WriteString("Write the headline for this slide. Respond with the headline text only.")

	return b.String()
}

// cleanHeadline strips model artifacts such as role labels, surrounding
// quotes and markdown emphasis from a returned headline.
func cleanHeadline(text string) string {
	s := strings.TrimSpace(text)

	for _, prefix := range []string{"Headline:", "headline:", "HEADLINE:"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
		}
	}

	s = strings.Trim(s, "\"'")
	s = strings.Trim(s, "*")

	// Multi-line responses keep only the first non-empty line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = strings.TrimSpace(s[:nl])
	}

	return s
}

// truncateError renders an error as a bounded detail string for slide records.
func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > maxErrorDetailLen {
		msg = msg[:maxErrorDetailLen] + "..."
	}
	return msg
}
