package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumitkamra20/insightgen/internal/domain"
	"github.com/sumitkamra20/insightgen/internal/observability"
)

func newTestManager() *Manager {
	return NewManager(observability.Nop(), time.Hour, time.Minute)
}

// waitForTerminal polls until the job leaves the queued/processing states.
func waitForTerminal(t *testing.T, m *Manager, id string) Snapshot {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("job did not finish in time")
		case <-time.After(5 * time.Millisecond):
		}

		snap, ok := m.Get(id)
		require.True(t, ok)
		if snap.Status != StatusQueued && snap.Status != StatusProcessing {
			return *snap
		}
	}
}

func TestJobCompletes(t *testing.T) {
	m := newTestManager()

	snap := m.Submit("deck.pdf", "BGS_Default", func(ctx context.Context) (*Outcome, error) {
		return &Outcome{
			Metrics:  domain.PipelineMetrics{GeneratorID: "BGS_Default", TotalSlides: 6},
			Artifact: Artifact{Filename: "deck_WITH_HEADLINES.json", Content: []byte(`{}`)},
		}, nil
	})

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "deck.pdf", snap.SourceFile)

	done := waitForTerminal(t, m, snap.ID)
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.Metrics)
	assert.Equal(t, 6, done.Metrics.TotalSlides)
	assert.NotNil(t, done.FinishedAt)

	art, ok := m.Artifact(snap.ID)
	require.True(t, ok)
	assert.Equal(t, "deck_WITH_HEADLINES.json", art.Filename)
}

func TestJobFails(t *testing.T) {
	m := newTestManager()

	snap := m.Submit("deck.pdf", "", func(ctx context.Context) (*Outcome, error) {
		return nil, errors.New("pipeline exploded")
	})

	done := waitForTerminal(t, m, snap.ID)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Contains(t, done.Error, "pipeline exploded")

	_, ok := m.Artifact(snap.ID)
	assert.False(t, ok)
}

func TestJobDeleteCancelsWork(t *testing.T) {
	m := newTestManager()

	started := make(chan struct{})
	snap := m.Submit("deck.pdf", "", func(ctx context.Context) (*Outcome, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	<-started
	require.True(t, m.Delete(snap.ID))

	_, ok := m.Get(snap.ID)
	assert.False(t, ok)

	// Deleting again reports not found.
	assert.False(t, m.Delete(snap.ID))
}

func TestListNewestFirst(t *testing.T) {
	m := newTestManager()

	noop := func(ctx context.Context) (*Outcome, error) {
		return &Outcome{}, nil
	}

	first := m.Submit("a.pdf", "", noop)
	time.Sleep(10 * time.Millisecond)
	second := m.Submit("b.pdf", "", noop)

	waitForTerminal(t, m, first.ID)
	waitForTerminal(t, m, second.ID)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestGetUnknownJob(t *testing.T) {
	m := newTestManager()

	_, ok := m.Get("nope")
	assert.False(t, ok)
}
