package artifact

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumitkamra20/insightgen/internal/domain"
)

func TestJSONWriter(t *testing.T) {
	slides := domain.NewSlideMap()
	slides.Add(&domain.SlideRecord{
		Index: 1, Layout: "HEADER", IsContentSlide: false,
		HeadlineText: domain.HeaderSlideHeadline, Status: domain.StatusSkipped,
	})
	slides.Add(&domain.SlideRecord{
		Index: 2, Layout: "Title and Content", IsContentSlide: true,
		ObservationText: "the observation", HeadlineText: "the headline",
		Status: domain.StatusHeadlineReady,
	})
	slides.Add(&domain.SlideRecord{
		Index: 3, Layout: "Title and Content", IsContentSlide: true,
		HeadlineText: domain.FailedHeadlineText, Status: domain.StatusError,
		ErrorDetail: "timeout",
	})

	w := NewJSONWriter()
	w.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	filename, content, err := w.Write(context.Background(), "quarterly_review.pdf", slides)
	require.NoError(t, err)
	assert.Equal(t, "quarterly_review_WITH_HEADLINES.json", filename)

	var doc struct {
		SourceFile string `json:"source_file"`
		Slides     []struct {
			Index       int    `json:"index"`
			Title       string `json:"title"`
			Notes       string `json:"notes"`
			Status      string `json:"status"`
			ErrorDetail string `json:"error_detail"`
		} `json:"slides"`
	}
	require.NoError(t, json.Unmarshal(content, &doc))

	assert.Equal(t, "quarterly_review.pdf", doc.SourceFile)
	require.Len(t, doc.Slides, 3)

	assert.Equal(t, domain.HeaderSlideHeadline, doc.Slides[0].Title)
	assert.Equal(t, "the headline", doc.Slides[1].Title)
	assert.Equal(t, "the observation", doc.Slides[1].Notes)
	assert.Equal(t, "headline_ready", doc.Slides[1].Status)
	assert.Equal(t, domain.FailedHeadlineText, doc.Slides[2].Title)
	assert.Equal(t, "timeout", doc.Slides[2].ErrorDetail)
}

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"deck.pdf", "deck_WITH_HEADLINES.json"},
		{"path/to/deck.pdf", "deck_WITH_HEADLINES.json"},
		{"noext", "noext_WITH_HEADLINES.json"},
		{"", "deck_WITH_HEADLINES.json"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputFilename(tt.in), "input %q", tt.in)
	}
}
