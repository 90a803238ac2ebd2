package generator

import (
	"sort"

	"github.com/sumitkamra20/insightgen/internal/domain"
	"github.com/sumitkamra20/insightgen/internal/observability"
)

// Summary is the listing view of one generator.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// Registry holds the generator definitions loaded from a source. It is
// constructed once, read-only afterwards, and safe for concurrent reads.
type Registry struct {
	logger     *observability.Logger
	generators map[string]domain.GeneratorDefinition
	order      []string
}

// NewRegistry loads, parses and validates every definition the source
// supplies. Invalid definitions are rejected and logged individually; they
// never poison the rest of the registry.
func NewRegistry(logger *observability.Logger, source Source, defaults Defaults) (*Registry, error) {
	docs, err := source.Load()
	if err != nil {
		return nil, err
	}

	reg := &Registry{
		logger:     logger.WithOperation("generator_registry"),
		generators: make(map[string]domain.GeneratorDefinition, len(docs)),
	}

	// Deterministic load order: sorted by origin.
	origins := make([]string, 0, len(docs))
	for origin := range docs {
		origins = append(origins, origin)
	}
	sort.Strings(origins)

	for _, origin := range origins {
		def, err := parseDefinition(docs[origin], defaults)
		if err != nil {
			reg.logger.Error().Err(err).Str("origin", origin).Str("source", source.Name()).
				Msg("Rejected invalid generator definition")
			continue
		}

		if _, dup := reg.generators[def.ID]; dup {
			reg.logger.Warn().Str("generator_id", def.ID).Str("origin", origin).
				Msg("Duplicate generator id, keeping later definition")
		} else {
			reg.order = append(reg.order, def.ID)
		}

		reg.generators[def.ID] = def
		reg.logger.Info().Str("generator_id", def.ID).Str("version", def.Version).
			Str("origin", origin).Msg("Loaded generator")
	}

	sort.Strings(reg.order)

	return reg, nil
}

// Get returns a definition by id.
func (r *Registry) Get(id string) (domain.GeneratorDefinition, error) {
	def, ok := r.generators[id]
	if !ok {
		return domain.GeneratorDefinition{}, domain.GeneratorNotFoundError(id)
	}
	return def, nil
}

// Resolve returns the definition for id, or the default definition when id
// is empty.
func (r *Registry) Resolve(id string) (domain.GeneratorDefinition, error) {
	if id == "" {
		defaultID, err := r.DefaultID()
		if err != nil {
			return domain.GeneratorDefinition{}, err
		}
		id = defaultID
	}
	return r.Get(id)
}

// DefaultID returns the well-known default generator id if loaded, else the
// first id in deterministic order.
func (r *Registry) DefaultID() (string, error) {
	if _, ok := r.generators[DefaultGeneratorID]; ok {
		return DefaultGeneratorID, nil
	}

	if len(r.order) > 0 {
		return r.order[0], nil
	}

	return "", domain.NoGeneratorsError()
}

// List returns summaries of all loaded generators in deterministic order.
func (r *Registry) List() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, id := range r.order {
		def := r.generators[id]
		out = append(out, Summary{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Version:     def.Version,
		})
	}
	return out
}

// Len returns the number of loaded generators.
func (r *Registry) Len() int {
	return len(r.generators)
}
