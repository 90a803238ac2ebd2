package domain

import (
	"sort"
	"strings"
)

// HeaderLayoutMarker marks slide layouts that carry no analyzable content.
// A slide whose layout name starts with this marker (case-insensitive) is a
// section header or divider and is excluded from both generation stages.
const HeaderLayoutMarker = "HEADER"

// Sentinel texts written into records instead of generated output.
const (
	HeaderSlideHeadline = "HEADER SLIDE"
	FailedHeadlineText  = "HEADLINE GENERATION FAILED"
)

// StageStatus tracks how far a slide has progressed through the pipeline
type StageStatus string

const (
	StatusPending          StageStatus = "pending"
	StatusSkipped          StageStatus = "skipped"
	StatusImageReady       StageStatus = "image_ready"
	StatusObservationReady StageStatus = "observation_ready"
	StatusHeadlineReady    StageStatus = "headline_ready"
	StatusError            StageStatus = "error"
)

// SlideInfo is the structural slide description supplied by a deck source.
type SlideInfo struct {
	LayoutName          string `json:"layout_name"`
	HasTitlePlaceholder bool   `json:"has_title_placeholder"`
}

// SlideRecord holds per-slide state as it moves through the pipeline.
// Slide indices are 1-based and ordering is meaningful.
type SlideRecord struct {
	Index               int         `json:"index"`
	Layout              string      `json:"layout"`
	IsContentSlide      bool        `json:"is_content_slide"`
	HasTitlePlaceholder bool        `json:"has_title_placeholder"`
	ObservationText     string      `json:"observation_text,omitempty"`
	HeadlineText        string      `json:"headline_text,omitempty"`
	Status              StageStatus `json:"status"`
	ErrorDetail         string      `json:"error_detail,omitempty"`
}

// IsHeaderLayout reports whether a layout name marks a non-content slide.
func IsHeaderLayout(layoutName string) bool {
	return strings.HasPrefix(strings.ToUpper(layoutName), HeaderLayoutMarker)
}

// SlideMap is an ordered collection of SlideRecords keyed by slide index.
// Iteration is always in ascending index order.
type SlideMap struct {
	records map[int]*SlideRecord
	indices []int
	sorted  bool
}

// NewSlideMap creates an empty slide map.
func NewSlideMap() *SlideMap {
	return &SlideMap{records: make(map[int]*SlideRecord)}
}

// Add inserts or replaces the record for its slide index.
func (m *SlideMap) Add(rec *SlideRecord) {
	if _, exists := m.records[rec.Index]; !exists {
		m.indices = append(m.indices, rec.Index)
		m.sorted = false
	}
	m.records[rec.Index] = rec
}

// Get returns the record for a slide index, or nil if absent.
func (m *SlideMap) Get(index int) *SlideRecord {
	return m.records[index]
}

// Len returns the number of slides.
func (m *SlideMap) Len() int {
	return len(m.records)
}

// Indices returns all slide indices in ascending order.
func (m *SlideMap) Indices() []int {
	if !m.sorted {
		sort.Ints(m.indices)
		m.sorted = true
	}
	out := make([]int, len(m.indices))
	copy(out, m.indices)
	return out
}

// ContentIndices returns the indices of content slides in ascending order.
func (m *SlideMap) ContentIndices() []int {
	var out []int
	for _, idx := range m.Indices() {
		if m.records[idx].IsContentSlide {
			out = append(out, idx)
		}
	}
	return out
}

// Records returns all records in ascending index order.
func (m *SlideMap) Records() []*SlideRecord {
	out := make([]*SlideRecord, 0, len(m.records))
	for _, idx := range m.Indices() {
		out = append(out, m.records[idx])
	}
	return out
}

// RenderedImage is one rasterized slide page. Instances live only for the
// duration of the batch window that produced them.
type RenderedImage struct {
	SlideIndex int
	Data       []byte // JPEG-encoded
	Width      int
	Height     int
}

// PromptSpec parameterizes one completion call family.
type PromptSpec struct {
	SystemPrompt string
	Model        string
	Temperature  float64
	MaxTokens    int64
}

// HeadlinePromptSpec extends PromptSpec with narrative context material.
// AdditionalInstructions is free-form caller-supplied text for one run; it is
// never part of a stored generator definition.
type HeadlinePromptSpec struct {
	PromptSpec
	KnowledgeBase          string
	FewShotExamples        string
	AdditionalInstructions string
}

// WorkflowSpec holds the generation workflow knobs of a generator.
type WorkflowSpec struct {
	ContextWindowSize int
	Parallelism       int
	BatchSize         int
}

// GeneratorDefinition is a named, versioned bundle of prompts and workflow
// parameters. Immutable once loaded by the registry.
type GeneratorDefinition struct {
	ID           string
	Name         string
	Description  string
	Version      string
	Observations PromptSpec
	Headlines    HeadlinePromptSpec
	Workflow     WorkflowSpec
}
