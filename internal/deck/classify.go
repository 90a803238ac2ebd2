// Package deck classifies slide deck structure for the generation pipeline.
package deck

import (
	"github.com/sumitkamra20/insightgen/internal/domain"
)

// Classify builds the initial slide records from a deck source. It is pure:
// the same deck structure always yields the same records. Non-content slides
// (header/divider layouts) are marked Skipped up front with the header
// headline sentinel, so they never enter either generation stage.
func Classify(src domain.DeckSource) (*domain.SlideMap, error) {
	slides, err := src.ListSlides()
	if err != nil {
		if domain.IsKind(err, domain.KindMalformedDeck) {
			return nil, err
		}
		return nil, domain.MalformedDeckError("failed to traverse deck structure", err)
	}

	if len(slides) == 0 {
		return nil, domain.MalformedDeckError("deck contains no slides", nil)
	}

	records := domain.NewSlideMap()
	for i, slide := range slides {
		rec := &domain.SlideRecord{
			Index:               i + 1,
			Layout:              slide.LayoutName,
			IsContentSlide:      !domain.IsHeaderLayout(slide.LayoutName),
			HasTitlePlaceholder: slide.HasTitlePlaceholder,
			Status:              domain.StatusPending,
		}

		if !rec.IsContentSlide {
			rec.Status = domain.StatusSkipped
			rec.HeadlineText = domain.HeaderSlideHeadline
		}

		records.Add(rec)
	}

	return records, nil
}
