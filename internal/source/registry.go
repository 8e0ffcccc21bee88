// Package source maps configured source entries onto their adapter
// implementations. Adding a new source kind means registering one more
// factory; downstream stages are untouched.
package source

import (
	"fmt"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// Factory builds a concrete adapter for one configured source entry.
type Factory func(cfg config.SourceConfig) (ports.Source, error)

// Registry keeps a mapping from source kinds to their factories.
type Registry struct {
	factories map[domain.ItemKind]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[domain.ItemKind]Factory{}}
}

// Register adds or replaces a factory for a source kind.
func (r *Registry) Register(kind domain.ItemKind, factory Factory) {
	if r.factories == nil {
		r.factories = map[domain.ItemKind]Factory{}
	}
	r.factories[kind] = factory
}

// Build constructs one adapter per configured source entry.
func (r *Registry) Build(entries []config.SourceConfig) ([]ports.Source, error) {
	sources := make([]ports.Source, 0, len(entries))
	for _, entry := range entries {
		factory, ok := r.factories[entry.Kind]
		if !ok {
			return nil, fmt.Errorf("source kind %s is not registered", entry.Kind)
		}

		src, err := factory(entry)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", entry.Label, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
