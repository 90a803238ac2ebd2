// Package generator loads and serves generator definitions: named, versioned
// bundles of prompts and workflow parameters that drive both generation
// stages of the pipeline.
package generator

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sumitkamra20/insightgen/internal/domain"
)

// DefaultGeneratorID is the well-known id preferred as the registry default.
const DefaultGeneratorID = "BGS_Default"

// Defaults supply process-wide values for fields a definition omits.
type Defaults struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	Workflow    domain.WorkflowSpec
}

// definitionDoc is the declarative YAML schema of one generator.
type definitionDoc struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	Prompts     struct {
		Observations promptDoc         `yaml:"observations"`
		Headlines    headlinePromptDoc `yaml:"headlines"`
	} `yaml:"prompts"`
	Workflow *workflowDoc `yaml:"workflow"`
}

type promptDoc struct {
	SystemPrompt string  `yaml:"system_prompt"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int64   `yaml:"max_tokens"`
}

type headlinePromptDoc struct {
	promptDoc       `yaml:",inline"`
	KnowledgeBase   string `yaml:"knowledge_base"`
	FewShotExamples string `yaml:"few_shot_examples"`
}

type workflowDoc struct {
	ContextWindowSize int `yaml:"context_window_size"`
	Parallelism       int `yaml:"parallelism"`
	BatchSize         int `yaml:"batch_size"`
}

// parseDefinition decodes and validates one YAML definition, backfilling
// optional fields from the process defaults. Definitions missing required
// fields are rejected, not silently defaulted.
func parseDefinition(data []byte, defaults Defaults) (domain.GeneratorDefinition, error) {
	var doc definitionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.GeneratorDefinition{}, domain.ConfigValidationError("invalid generator YAML", err)
	}

	if err := doc.validate(); err != nil {
		return domain.GeneratorDefinition{}, err
	}

	return doc.toDomain(defaults), nil
}

func (d *definitionDoc) validate() error {
	required := map[string]string{
		"id":          d.ID,
		"name":        d.Name,
		"description": d.Description,
		"version":     d.Version,
	}
	for field, value := range required {
		if value == "" {
			return domain.ConfigValidationError(fmt.Sprintf("missing required field %q", field), nil)
		}
	}

	if d.Prompts.Observations.SystemPrompt == "" {
		return domain.ConfigValidationError("missing system_prompt in prompts.observations", nil)
	}

	if d.Prompts.Headlines.SystemPrompt == "" {
		return domain.ConfigValidationError("missing system_prompt in prompts.headlines", nil)
	}

	return nil
}

func (d *definitionDoc) toDomain(defaults Defaults) domain.GeneratorDefinition {
	def := domain.GeneratorDefinition{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Version:     d.Version,
		Observations: domain.PromptSpec{
			SystemPrompt: d.Prompts.Observations.SystemPrompt,
			Model:        d.Prompts.Observations.Model,
			Temperature:  d.Prompts.Observations.Temperature,
			MaxTokens:    d.Prompts.Observations.MaxTokens,
		},
		Headlines: domain.HeadlinePromptSpec{
			PromptSpec: domain.PromptSpec{
				SystemPrompt: d.Prompts.Headlines.SystemPrompt,
				Model:        d.Prompts.Headlines.Model,
				Temperature:  d.Prompts.Headlines.Temperature,
				MaxTokens:    d.Prompts.Headlines.MaxTokens,
			},
			KnowledgeBase:   d.Prompts.Headlines.KnowledgeBase,
			FewShotExamples: d.Prompts.Headlines.FewShotExamples,
		},
		Workflow: defaults.Workflow,
	}

	fillPromptDefaults(&def.Observations, defaults)
	fillPromptDefaults(&def.Headlines.PromptSpec, defaults)

	// A missing workflow block keeps the process-wide defaults wholesale;
	// a partial block overrides only the fields it sets.
	if d.Workflow != nil {
		if d.Workflow.ContextWindowSize > 0 {
			def.Workflow.ContextWindowSize = d.Workflow.ContextWindowSize
		}
		if d.Workflow.Parallelism > 0 {
			def.Workflow.Parallelism = d.Workflow.Parallelism
		}
		if d.Workflow.BatchSize > 0 {
			def.Workflow.BatchSize = d.Workflow.BatchSize
		}
	}

	return def
}

func fillPromptDefaults(p *domain.PromptSpec, defaults Defaults) {
	if p.Model == "" {
		p.Model = defaults.Model
	}
	if p.Temperature == 0 {
		p.Temperature = defaults.Temperature
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = defaults.MaxTokens
	}
}
