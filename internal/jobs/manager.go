// Package jobs tracks background pipeline runs submitted over the API.
package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/sumitkamra20/insightgen/internal/domain"
	"github.com/sumitkamra20/insightgen/internal/observability"
)

// Status is the lifecycle state of one job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Artifact is the downloadable output of a completed job.
type Artifact struct {
	Filename string
	Content  []byte
}

// Job is the tracked state of one submitted run. Fields are guarded by mu.
type Job struct {
	mu sync.Mutex

	ID          string
	SourceFile  string
	GeneratorID string
	Status      Status
	Error       string
	Metrics     *domain.PipelineMetrics
	Artifact    *Artifact
	SubmittedAt time.Time
	FinishedAt  time.Time

	cancel context.CancelFunc
}

// Snapshot is an immutable view of a job for API responses.
type Snapshot struct {
	ID          string                  `json:"job_id"`
	SourceFile  string                  `json:"source_file"`
	GeneratorID string                  `json:"generator_id"`
	Status      Status                  `json:"status"`
	Error       string                  `json:"error,omitempty"`
	Metrics     *domain.PipelineMetrics `json:"metrics,omitempty"`
	SubmittedAt time.Time               `json:"submitted_at"`
	FinishedAt  *time.Time              `json:"finished_at,omitempty"`
}

func (j *Job) snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Snapshot{
		ID:          j.ID,
		SourceFile:  j.SourceFile,
		GeneratorID: j.GeneratorID,
		Status:      j.Status,
		Error:       j.Error,
		Metrics:     j.Metrics,
		SubmittedAt: j.SubmittedAt,
	}
	if !j.FinishedAt.IsZero() {
		t := j.FinishedAt
		s.FinishedAt = &t
	}
	return s
}

// Outcome is what a job's work function produces on success.
type Outcome struct {
	Metrics  domain.PipelineMetrics
	Artifact Artifact
}

// WorkFunc is the unit of work a job executes.
type WorkFunc func(ctx context.Context) (*Outcome, error)

// Manager runs jobs in the background and retains finished jobs for a
// bounded time.
type Manager struct {
	logger  *observability.Logger
	store   *cache.Cache
	timeout time.Duration
}

// NewManager creates a job manager. Finished jobs expire after retention.
func NewManager(logger *observability.Logger, retention, timeout time.Duration) *Manager {
	return &Manager{
		logger:  logger.WithOperation("jobs"),
		store:   cache.New(retention, retention/2),
		timeout: timeout,
	}
}

// Submit registers a job and starts its work in the background. The work
// context is bounded by the manager's job timeout.
func (m *Manager) Submit(sourceFile, generatorID string, work WorkFunc) *Snapshot {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)

	job := &Job{
		ID:          uuid.NewString(),
		SourceFile:  sourceFile,
		GeneratorID: generatorID,
		Status:      StatusQueued,
		SubmittedAt: time.Now(),
		cancel:      cancel,
	}
	m.store.Set(job.ID, job, cache.DefaultExpiration)

	m.logger.Info().Str("job_id", job.ID).Str("source_file", sourceFile).
		Str("generator_id", generatorID).Msg("Job submitted")

	go m.run(ctx, job, work)

	snap := job.snapshot()
	return &snap
}

func (m *Manager) run(ctx context.Context, job *Job, work WorkFunc) {
	defer job.cancel()

	job.mu.Lock()
	job.Status = StatusProcessing
	job.mu.Unlock()

	outcome, err := work(ctx)

	job.mu.Lock()
	defer job.mu.Unlock()

	job.FinishedAt = time.Now()

	switch {
	case err != nil && ctx.Err() != nil:
		job.Status = StatusCancelled
		job.Error = ctx.Err().Error()
		m.logger.Warn().Str("job_id", job.ID).Err(err).Msg("Job cancelled")
	case err != nil:
		job.Status = StatusFailed
		job.Error = err.Error()
		m.logger.Error().Str("job_id", job.ID).Err(err).Msg("Job failed")
	default:
		job.Status = StatusCompleted
		job.Metrics = &outcome.Metrics
		job.Artifact = &outcome.Artifact
		m.logger.Info().Str("job_id", job.ID).
			Dur("duration", job.FinishedAt.Sub(job.SubmittedAt)).Msg("Job completed")
	}
}

// Get returns a snapshot of one job.
func (m *Manager) Get(id string) (*Snapshot, bool) {
	job, ok := m.lookup(id)
	if !ok {
		return nil, false
	}
	snap := job.snapshot()
	return &snap, true
}

// Artifact returns the output of a completed job.
func (m *Manager) Artifact(id string) (*Artifact, bool) {
	job, ok := m.lookup(id)
	if !ok {
		return nil, false
	}

	job.mu.Lock()
	defer job.mu.Unlock()

	if job.Status != StatusCompleted || job.Artifact == nil {
		return nil, false
	}
	return job.Artifact, true
}

// List returns snapshots of all retained jobs, newest first.
func (m *Manager) List() []Snapshot {
	items := m.store.Items()

	out := make([]Snapshot, 0, len(items))
	for _, item := range items {
		if job, ok := item.Object.(*Job); ok {
			out = append(out, job.snapshot())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

// Delete cancels a job if still running and removes it from the store.
func (m *Manager) Delete(id string) bool {
	job, ok := m.lookup(id)
	if !ok {
		return false
	}

	job.cancel()
	m.store.Delete(id)

	m.logger.Info().Str("job_id", id).Msg("Job deleted")
	return true
}

func (m *Manager) lookup(id string) (*Job, bool) {
	v, ok := m.store.Get(id)
	if !ok {
		return nil, false
	}
	job, ok := v.(*Job)
	return job, ok
}
