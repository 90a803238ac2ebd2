package domain

import "time"

// StageMetrics accumulates counters for one generation stage.
type StageMetrics struct {
	Processed int `json:"processed"`
	Generated int `json:"generated"`
	Errors    int `json:"errors"`
}

// Merge adds another stage's counters into this one.
func (m *StageMetrics) Merge(other StageMetrics) {
	m.Processed += other.Processed
	m.Generated += other.Generated
	m.Errors += other.Errors
}

// PipelineMetrics is the aggregate report for one pipeline run.
type PipelineMetrics struct {
	GeneratorID      string `json:"generator_id"`
	GeneratorName    string `json:"generator_name,omitempty"`
	GeneratorVersion string `json:"generator_version,omitempty"`

	TotalSlides           int `json:"total_slides"`
	ContentSlides         int `json:"content_slides"`
	SlidesProcessed       int `json:"slides_processed"`
	ObservationsGenerated int `json:"observations_generated"`
	HeadlinesGenerated    int `json:"headlines_generated"`
	Errors                int `json:"errors"`

	StartTime               time.Time     `json:"start_time"`
	EndTime                 time.Time     `json:"end_time"`
	TotalDuration           time.Duration `json:"total_duration"`
	AveragePerContentSlide  time.Duration `json:"average_per_content_slide"`
}

// Finish stamps the end time and derives duration figures.
func (m *PipelineMetrics) Finish(end time.Time) {
	m.EndTime = end
	m.TotalDuration = end.Sub(m.StartTime)
	if m.ContentSlides > 0 {
		m.AveragePerContentSlide = m.TotalDuration / time.Duration(m.ContentSlides)
	}
}
