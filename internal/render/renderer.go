// Package render rasterizes contiguous page windows of a PDF document.
//
// Rendering every page of a deck at full resolution up front is the dominant
// memory cost of the pipeline, so callers request bounded windows and discard
// the images once consumed. The renderer keeps no per-window state; only the
// open document is retained between calls.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"

	"github.com/sumitkamra20/insightgen/internal/domain"
)

// Options configure page rasterization.
type Options struct {
	DPI         int
	JPEGQuality int
}

// DefaultOptions returns the standard rasterization settings. 200 DPI keeps
// slide text legible for the vision model while holding token cost down.
func DefaultOptions() Options {
	return Options{DPI: 200, JPEGQuality: 85}
}

// PageSource renders page windows of one PDF document using go-fitz.
// It implements domain.PageImageSource.
type PageSource struct {
	doc  *fitz.Document
	opts Options
}

// NewPageSource opens a PDF from raw bytes.
func NewPageSource(pdfContent []byte, opts Options) (*PageSource, error) {
	if len(pdfContent) == 0 {
		return nil, domain.RenderError("empty PDF content", nil)
	}

	doc, err := fitz.NewFromMemory(pdfContent)
	if err != nil {
		return nil, domain.RenderError("failed to open PDF", err)
	}

	return newPageSource(doc, opts)
}

// NewPageSourceFromFile opens a PDF from disk.
func NewPageSourceFromFile(path string, opts Options) (*PageSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.RenderError(fmt.Sprintf("failed to open PDF %s", path), err)
	}

	return newPageSource(doc, opts)
}

func newPageSource(doc *fitz.Document, opts Options) (*PageSource, error) {
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, domain.RenderError("PDF has no pages", nil)
	}

	if opts.DPI <= 0 {
		opts.DPI = DefaultOptions().DPI
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = DefaultOptions().JPEGQuality
	}

	return &PageSource{doc: doc, opts: opts}, nil
}

// PageCount returns the total number of renderable pages.
func (s *PageSource) PageCount() int {
	return s.doc.NumPage()
}

// RenderRange rasterizes exactly the requested window (1-based start,
// inclusive count) to JPEG images keyed by slide index. Any page failure
// fails the whole window.
func (s *PageSource) RenderRange(ctx context.Context, startPage, pageCount int) (map[int]domain.RenderedImage, error) {
	if startPage < 1 || pageCount < 1 {
		return nil, domain.RenderError(fmt.Sprintf("invalid render window start=%d count=%d", startPage, pageCount), nil)
	}

	total := s.doc.NumPage()
	if startPage+pageCount-1 > total {
		return nil, domain.RenderError(fmt.Sprintf(
			"render window start=%d count=%d exceeds %d pages", startPage, pageCount, total), nil)
	}

	images := make(map[int]domain.RenderedImage, pageCount)

	for page := startPage; page < startPage+pageCount; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// go-fitz pages are 0-based
		img, err := s.doc.ImageDPI(page-1, float64(s.opts.DPI))
		if err != nil {
			return nil, domain.RenderError(fmt.Sprintf("failed to rasterize page %d", page), err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.opts.JPEGQuality}); err != nil {
			return nil, domain.RenderError(fmt.Sprintf("failed to encode page %d as JPEG", page), err)
		}

		bounds := img.Bounds()
		images[page] = domain.RenderedImage{
			SlideIndex: page,
			Data:       buf.Bytes(),
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		}
	}

	return images, nil
}

// Close releases the underlying document.
func (s *PageSource) Close() error {
	if s.doc != nil {
		s.doc.Close()
		s.doc = nil
	}
	return nil
}
