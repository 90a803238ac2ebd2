package deck

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sumitkamra20/insightgen/internal/domain"
)

// Manifest is the JSON description of a deck's structure, produced by the
// external presentation tooling that owns the binary deck format.
type Manifest struct {
	Filename string             `json:"filename,omitempty"`
	Slides   []domain.SlideInfo `json:"slides"`
}

// ManifestSource is a DeckSource backed by a slide manifest document.
type ManifestSource struct {
	manifest Manifest
}

// NewManifestSource parses a slide manifest from JSON bytes.
func NewManifestSource(data []byte) (*ManifestSource, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, domain.MalformedDeckError("unsupported or corrupt slide manifest", err)
	}

	if len(m.Slides) == 0 {
		return nil, domain.MalformedDeckError("slide manifest lists no slides", nil)
	}

	return &ManifestSource{manifest: m}, nil
}

// ListSlides returns one SlideInfo per slide in deck order.
func (s *ManifestSource) ListSlides() ([]domain.SlideInfo, error) {
	out := make([]domain.SlideInfo, len(s.manifest.Slides))
	copy(out, s.manifest.Slides)
	return out, nil
}

// Filename returns the deck filename recorded in the manifest, if any.
func (s *ManifestSource) Filename() string {
	return s.manifest.Filename
}

// ValidatePair checks a deck manifest against its paired page document.
// A slide/page count mismatch is fatal; a base-name mismatch between the two
// files is only a warning.
func ValidatePair(src *ManifestSource, pageCount int, deckFilename, pdfFilename string) (warnings []string, err error) {
	deckBase := strings.TrimSuffix(deckFilename, filepath.Ext(deckFilename))
	pdfBase := strings.TrimSuffix(pdfFilename, filepath.Ext(pdfFilename))

	if deckFilename != "" && pdfFilename != "" && deckBase != pdfBase {
		warnings = append(warnings, fmt.Sprintf(
			"filename mismatch: deck %q and PDF %q have different names", deckFilename, pdfFilename))
	}

	slideCount := len(src.manifest.Slides)

	if slideCount != pageCount {
		return warnings, domain.MalformedDeckError(fmt.Sprintf(
			"slide count mismatch: deck has %d slides, PDF has %d pages", slideCount, pageCount), nil)
	}

	return warnings, nil
}
