package pipeline

import (
	"github.com/sumitkamra20/insightgen/internal/config"
	"github.com/sumitkamra20/insightgen/internal/domain"
)

// Overrides carries per-request knobs. Zero values mean "not set". The
// string fields adjust the headline prompt for one run only: FewShotExamples
// replaces the generator's examples, AdditionalInstructions is appended to
// the headline system prompt.
type Overrides struct {
	ContextWindowSize int
	Parallelism       int
	BatchSize         int

	FewShotExamples        string
	AdditionalInstructions string
}

// ResolvedConfig is the single merged workflow configuration a pipeline run
// operates under. Precedence: request overrides, then the generator's
// workflow block, then process defaults. Immutable once built.
type ResolvedConfig struct {
	ContextWindowSize int
	Parallelism       int
	BatchSize         int
}

// ResolveConfig merges the three configuration layers for one run.
func ResolveConfig(defaults config.PipelineConfig, workflow domain.WorkflowSpec, overrides Overrides) ResolvedConfig {
	return ResolvedConfig{
		ContextWindowSize: pick(overrides.ContextWindowSize, workflow.ContextWindowSize, defaults.ContextWindowSize),
		Parallelism:       pick(overrides.Parallelism, workflow.Parallelism, defaults.Parallelism),
		BatchSize:         pick(overrides.BatchSize, workflow.BatchSize, defaults.BatchSize),
	}
}

func pick(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 1
}
