// Package artifact produces the downloadable output of a pipeline run.
package artifact

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/sumitkamra20/insightgen/internal/domain"
)

// outputSuffix marks enriched artifacts so they are never mistaken for input
// decks.
const outputSuffix = "_WITH_HEADLINES"

// slideEntry is one slide in the output document. The headline lands in the
// title field and the observations in the notes field.
type slideEntry struct {
	Index          int    `json:"index"`
	Layout         string `json:"layout"`
	IsContentSlide bool   `json:"is_content_slide"`
	Title          string `json:"title,omitempty"`
	Notes          string `json:"notes,omitempty"`
	Status         string `json:"status"`
	ErrorDetail    string `json:"error_detail,omitempty"`
}

type document struct {
	SourceFile  string       `json:"source_file"`
	GeneratedAt time.Time    `json:"generated_at"`
	Slides      []slideEntry `json:"slides"`
}

// JSONWriter renders the enriched slide records as a JSON document.
type JSONWriter struct {
	now func() time.Time
}

// NewJSONWriter creates a writer using the wall clock.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{now: time.Now}
}

// Write serializes all slides in ascending order. The returned filename is
// derived from the source deck name with the output suffix appended.
func (w *JSONWriter) Write(ctx context.Context, sourceName string, slides *domain.SlideMap) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	doc := document{
		SourceFile:  sourceName,
		GeneratedAt: w.now().UTC(),
		Slides:      make([]slideEntry, 0, slides.Len()),
	}

	for _, rec := range slides.Records() {
		doc.Slides = append(doc.Slides, slideEntry{
			Index:          rec.Index,
			Layout:         rec.Layout,
			IsContentSlide: rec.IsContentSlide,
			Title:          rec.HeadlineText,
			Notes:          rec.ObservationText,
			Status:         string(rec.Status),
			ErrorDetail:    rec.ErrorDetail,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", nil, domain.IOError("encode output document", err)
	}

	return OutputFilename(sourceName), data, nil
}

// OutputFilename derives the artifact name from the source deck name.
func OutputFilename(sourceName string) string {
	base := filepath.Base(sourceName)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." {
		stem = "deck"
	}
	return stem + outputSuffix + ".json"
}
