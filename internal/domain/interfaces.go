package domain

import "context"

// DeckSource supplies the structural description of a slide deck.
type DeckSource interface {
	// ListSlides returns one SlideInfo per slide in deck order.
	// Fails with a MalformedDeck error on unparseable input.
	ListSlides() ([]SlideInfo, error)
}

// PageImageSource rasterizes contiguous page windows of the paired document.
type PageImageSource interface {
	// PageCount returns the total number of renderable pages.
	PageCount() int

	// RenderRange rasterizes exactly the requested window (1-based start,
	// inclusive count) and returns the images keyed by slide index. A
	// failure on any page fails the whole window with a RenderError.
	RenderRange(ctx context.Context, startPage, pageCount int) (map[int]RenderedImage, error)

	// Close releases the underlying document.
	Close() error
}

// CompletionRequest is one single-turn request to the completion service.
// ImageData, when set, is a JPEG to attach to the user content.
type CompletionRequest struct {
	SystemPrompt string
	UserText     string
	ImageData    []byte
	Model        string
	Temperature  float64
	MaxTokens    int64
}

// CompletionService is the text/vision model behind both generation stages.
// Treated as an opaque, possibly-slow, possibly-failing RPC.
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ResultSink consumes the enriched slide records and produces the output
// artifact, writing headline text into a title-equivalent field and
// observation text into a notes-equivalent field per slide.
type ResultSink interface {
	Write(ctx context.Context, sourceName string, slides *SlideMap) (filename string, content []byte, err error)
}
